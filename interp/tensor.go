// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interp

import (
	"fmt"
	"slices"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// Tensor is a dense row-major tensor of float64 values.
type Tensor struct {
	Shape *shape.Shape
	Data  []float64
}

// NewTensor returns a tensor filled with zeros.
func NewTensor(dims ...int) *Tensor {
	sh := &shape.Shape{DType: dtype.Float64, AxisLengths: slices.Clone(dims)}
	return &Tensor{Shape: sh, Data: make([]float64, sh.Size())}
}

// FromSlice returns a tensor given its data and its dimensions.
func FromSlice(data []float64, dims ...int) (*Tensor, error) {
	t := NewTensor(dims...)
	if len(data) != len(t.Data) {
		return nil, errors.Errorf("cannot build a tensor of shape %v from %d values", dims, len(data))
	}
	copy(t.Data, data)
	return t, nil
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Shape: &shape.Shape{DType: t.Shape.DType, AxisLengths: slices.Clone(t.Shape.AxisLengths)},
		Data:  slices.Clone(t.Data),
	}
}

func (t *Tensor) String() string {
	return fmt.Sprintf("%v%v", t.Shape.AxisLengths, t.Data)
}

// view is a subset of a tensor: the remaining axes after subscripting
// the leading axes.
type view struct {
	t      *Tensor
	offset int
	axes   []int
}

func (t *Tensor) view() view {
	return view{t: t, axes: t.Shape.AxisLengths}
}

func (v view) stride() int {
	stride := 1
	for _, n := range v.axes[1:] {
		stride *= n
	}
	return stride
}

func (v view) sub(i int64) (view, error) {
	if len(v.axes) == 0 {
		return view{}, errors.Errorf("cannot subscript a tensor element")
	}
	if i < 0 || i >= int64(v.axes[0]) {
		return view{}, errors.Errorf("index %d out of range [0, %d)", i, v.axes[0])
	}
	return view{
		t:      v.t,
		offset: v.offset + int(i)*v.stride(),
		axes:   v.axes[1:],
	}, nil
}

func (v view) isElement() bool {
	return len(v.axes) == 0
}
