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

package irkind_test

import (
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tlc/build/ir/irkind"
)

func TestKindFromString(t *testing.T) {
	for knd := irkind.Invalid + 1; knd < irkind.Max; knd++ {
		if !irkind.IsScalar(knd) {
			continue
		}
		got := irkind.KindFromString(knd.String())
		if got != knd {
			t.Errorf("KindFromString(%q) = %v, want %v", knd.String(), got, knd)
		}
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		knd                           irkind.Kind
		scalar, integer, float, cmplx bool
		dtype                         dtype.DataType
	}{
		{knd: irkind.Float32, scalar: true, float: true, dtype: dtype.Float32},
		{knd: irkind.Index, scalar: true, integer: true, dtype: dtype.Int64},
		{knd: irkind.Uint32, scalar: true, integer: true, dtype: dtype.Uint32},
		{knd: irkind.Complex64, scalar: true, cmplx: true, dtype: dtype.Invalid},
		{knd: irkind.Tensor, dtype: dtype.Invalid},
		{knd: irkind.Void, dtype: dtype.Invalid},
	}
	for _, test := range tests {
		if got := irkind.IsScalar(test.knd); got != test.scalar {
			t.Errorf("IsScalar(%v) = %v, want %v", test.knd, got, test.scalar)
		}
		if got := irkind.IsInteger(test.knd); got != test.integer {
			t.Errorf("IsInteger(%v) = %v, want %v", test.knd, got, test.integer)
		}
		if got := irkind.IsFloat(test.knd); got != test.float {
			t.Errorf("IsFloat(%v) = %v, want %v", test.knd, got, test.float)
		}
		if got := irkind.IsComplex(test.knd); got != test.cmplx {
			t.Errorf("IsComplex(%v) = %v, want %v", test.knd, got, test.cmplx)
		}
		if got := test.knd.DType(); got != test.dtype {
			t.Errorf("%v.DType() = %v, want %v", test.knd, got, test.dtype)
		}
	}
}
