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

package isl

// #include "helpers.h"
import "C"

import "unsafe"

var (
	valClass = class[C.isl_val]{
		name: "val",
		copy: func(p *C.isl_val) *C.isl_val { return C.isl_val_copy(p) },
		free: func(p *C.isl_val) { C.isl_val_free(p) },
		str:  func(p *C.isl_val) *C.char { return C.isl_val_to_str(p) },
	}
	multiValClass = class[C.isl_multi_val]{
		name: "multi val",
		copy: func(p *C.isl_multi_val) *C.isl_multi_val { return C.isl_multi_val_copy(p) },
		free: func(p *C.isl_multi_val) { C.isl_multi_val_free(p) },
		str:  func(p *C.isl_multi_val) *C.char { return C.isl_multi_val_to_str(p) },
	}
	affClass = class[C.isl_aff]{
		name: "aff",
		copy: func(p *C.isl_aff) *C.isl_aff { return C.isl_aff_copy(p) },
		free: func(p *C.isl_aff) { C.isl_aff_free(p) },
		str:  func(p *C.isl_aff) *C.char { return C.isl_aff_to_str(p) },
	}
)

// Val is an arbitrary precision rational value.
type Val struct {
	object[C.isl_val]
}

func newVal(ctx *Ctx, op string, ptr *C.isl_val) (*Val, error) {
	obj, err := newObject(ctx, &valClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &Val{obj}, nil
}

// ReadVal parses a value, for example "3/4".
func ReadVal(ctx *Ctx, s string) (*Val, error) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return newVal(ctx, "read val", C.isl_val_read_from_str(ctx.ptr, cs))
}

// IntVal returns an integer value.
func IntVal(ctx *Ctx, v int64) (*Val, error) {
	return newVal(ctx, "int val", C.isl_val_int_from_si(ctx.ptr, C.long(v)))
}

// Copy returns a deep copy of the value.
func (v *Val) Copy() (*Val, error) {
	if err := checkAlive(v); err != nil {
		return nil, err
	}
	return newVal(v.ctx, "copy val", v.dup())
}

// Int64 returns the value as an integer.
// Returns false if the value is not an integer.
func (v *Val) Int64() (int64, bool) {
	if v.ptr == nil || C.isl_val_is_int(v.ptr) != C.isl_bool_true {
		return 0, false
	}
	return int64(C.isl_val_get_num_si(v.ptr)), true
}

// MultiVal is a vector of values, one for each dimension of a space.
type MultiVal struct {
	object[C.isl_multi_val]
}

func newMultiVal(ctx *Ctx, op string, ptr *C.isl_multi_val) (*MultiVal, error) {
	obj, err := newObject(ctx, &multiValClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &MultiVal{obj}, nil
}

// Copy returns a deep copy of the vector.
func (mv *MultiVal) Copy() (*MultiVal, error) {
	if err := checkAlive(mv); err != nil {
		return nil, err
	}
	return newMultiVal(mv.ctx, "copy multi val", mv.dup())
}

// Aff is an affine expression over the dimensions of a space.
type Aff struct {
	object[C.isl_aff]
}

func newAff(ctx *Ctx, op string, ptr *C.isl_aff) (*Aff, error) {
	obj, err := newObject(ctx, &affClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &Aff{obj}, nil
}

// ReadAff parses an affine expression, for example "{ [i] -> [(2i + 1)] }".
func ReadAff(ctx *Ctx, s string) (*Aff, error) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return newAff(ctx, "read aff", C.isl_aff_read_from_str(ctx.ptr, cs))
}

// Copy returns a deep copy of the expression.
func (a *Aff) Copy() (*Aff, error) {
	if err := checkAlive(a); err != nil {
		return nil, err
	}
	return newAff(a.ctx, "copy aff", a.dup())
}

// Constant returns the constant term of the expression.
func (a *Aff) Constant() (*Val, error) {
	if err := checkAlive(a); err != nil {
		return nil, err
	}
	return newVal(a.ctx, "aff constant", C.isl_aff_get_constant_val(a.ptr))
}
