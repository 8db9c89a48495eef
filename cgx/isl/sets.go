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

import (
	"unsafe"

	"github.com/gx-org/tlc/cgx/handle"
)

var (
	setClass = class[C.isl_set]{
		name: "set",
		copy: func(p *C.isl_set) *C.isl_set { return C.isl_set_copy(p) },
		free: func(p *C.isl_set) { C.isl_set_free(p) },
		str:  func(p *C.isl_set) *C.char { return C.isl_set_to_str(p) },
	}
	unionSetClass = class[C.isl_union_set]{
		name: "union set",
		copy: func(p *C.isl_union_set) *C.isl_union_set { return C.isl_union_set_copy(p) },
		free: func(p *C.isl_union_set) { C.isl_union_set_free(p) },
		str:  func(p *C.isl_union_set) *C.char { return C.isl_union_set_to_str(p) },
	}
)

// Set is a set of integer points of a single space.
type Set struct {
	object[C.isl_set]
}

func newSet(ctx *Ctx, op string, ptr *C.isl_set) (*Set, error) {
	obj, err := newObject(ctx, &setClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &Set{obj}, nil
}

// ReadSet parses a set, for example "[n] -> { S[i] : 0 <= i < n }".
func ReadSet(ctx *Ctx, s string) (*Set, error) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return newSet(ctx, "read set", C.isl_set_read_from_str(ctx.ptr, cs))
}

// Copy returns a deep copy of the set.
func (s *Set) Copy() (*Set, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newSet(s.ctx, "copy set", s.dup())
}

// IsEmpty returns true if the set has no point.
func (s *Set) IsEmpty() (bool, error) {
	if err := checkAlive(s); err != nil {
		return false, err
	}
	return s.ctx.toBool("set is empty", C.isl_set_is_empty(s.ptr))
}

// IsEqual returns true if two sets have the same points.
func (s *Set) IsEqual(other *Set) (bool, error) {
	if err := checkAlive(s, other); err != nil {
		return false, err
	}
	return s.ctx.toBool("set is equal", C.isl_set_is_equal(s.ptr, other.ptr))
}

// UnionSet returns the set as a union set.
func (s *Set) UnionSet() (*UnionSet, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newUnionSet(s.ctx, "union set from set", C.isl_union_set_from_set(s.dup()))
}

// UnionSet is a set of integer points of several spaces.
type UnionSet struct {
	object[C.isl_union_set]
}

func newUnionSet(ctx *Ctx, op string, ptr *C.isl_union_set) (*UnionSet, error) {
	obj, err := newObject(ctx, &unionSetClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &UnionSet{obj}, nil
}

// ReadUnionSet parses a union set, for example "{ S[i] : 0 <= i < 10; T[] }".
func ReadUnionSet(ctx *Ctx, s string) (*UnionSet, error) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return newUnionSet(ctx, "read union set", C.isl_union_set_read_from_str(ctx.ptr, cs))
}

// Copy returns a deep copy of the set.
func (s *UnionSet) Copy() (*UnionSet, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newUnionSet(s.ctx, "copy union set", s.dup())
}

// Union returns the points in s or in other.
func (s *UnionSet) Union(other *UnionSet) (*UnionSet, error) {
	if err := checkAlive(s, other); err != nil {
		return nil, err
	}
	return newUnionSet(s.ctx, "union", C.isl_union_set_union(s.dup(), other.dup()))
}

// Intersect returns the points in s and in other.
func (s *UnionSet) Intersect(other *UnionSet) (*UnionSet, error) {
	if err := checkAlive(s, other); err != nil {
		return nil, err
	}
	return newUnionSet(s.ctx, "intersect", C.isl_union_set_intersect(s.dup(), other.dup()))
}

// Subtract returns the points in s which are not in other.
func (s *UnionSet) Subtract(other *UnionSet) (*UnionSet, error) {
	if err := checkAlive(s, other); err != nil {
		return nil, err
	}
	return newUnionSet(s.ctx, "subtract", C.isl_union_set_subtract(s.dup(), other.dup()))
}

// Apply returns the image of the set by a relation.
func (s *UnionSet) Apply(m *UnionMap) (*UnionSet, error) {
	if err := checkAlive(s, m); err != nil {
		return nil, err
	}
	return newUnionSet(s.ctx, "apply", C.isl_union_set_apply(s.dup(), m.dup()))
}

// Identity returns the identity relation on the set.
func (s *UnionSet) Identity() (*UnionMap, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newUnionMap(s.ctx, "identity", C.isl_union_set_identity(s.dup()))
}

// Coalesce simplifies the representation of the set.
func (s *UnionSet) Coalesce() (*UnionSet, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newUnionSet(s.ctx, "coalesce", C.isl_union_set_coalesce(s.dup()))
}

// IsEmpty returns true if the set has no point.
func (s *UnionSet) IsEmpty() (bool, error) {
	if err := checkAlive(s); err != nil {
		return false, err
	}
	return s.ctx.toBool("union set is empty", C.isl_union_set_is_empty(s.ptr))
}

// IsEqual returns true if two sets have the same points.
func (s *UnionSet) IsEqual(other *UnionSet) (bool, error) {
	if err := checkAlive(s, other); err != nil {
		return false, err
	}
	return s.ctx.toBool("union set is equal", C.isl_union_set_is_equal(s.ptr, other.ptr))
}

// IsSubset returns true if all the points of s are in other.
func (s *UnionSet) IsSubset(other *UnionSet) (bool, error) {
	if err := checkAlive(s, other); err != nil {
		return false, err
	}
	return s.ctx.toBool("union set is subset", C.isl_union_set_is_subset(s.ptr, other.ptr))
}

// Point is an integer point of a named space.
type Point struct {
	Tuple  string
	Coords []int64
}

type pointVisitor struct {
	f   func(Point) error
	err error
}

// ForEachPoint calls f on every point of a bounded set.
// The order of the points is not specified.
// Iteration stops at the first error returned by f.
func (s *UnionSet) ForEachPoint(f func(Point) error) error {
	if err := checkAlive(s); err != nil {
		return err
	}
	visitor := &pointVisitor{f: f}
	status := handle.With(visitor, func(h handle.Handle) C.isl_stat {
		return C.tlc_union_set_foreach_point(s.ptr, C.uintptr_t(h))
	})
	if visitor.err != nil {
		return visitor.err
	}
	if status < 0 {
		return s.ctx.lastError("foreach point")
	}
	return nil
}

func toPoint(pnt *C.isl_point) Point {
	space := C.isl_point_get_space(pnt)
	defer C.isl_space_free(space)
	var p Point
	if name := C.isl_space_get_tuple_name(space, C.isl_dim_set); name != nil {
		p.Tuple = C.GoString(name)
	}
	n := int(C.isl_space_dim(space, C.isl_dim_set))
	p.Coords = make([]int64, max(n, 0))
	for i := range p.Coords {
		v := C.isl_point_get_coordinate_val(pnt, C.isl_dim_set, C.int(i))
		p.Coords[i] = int64(C.isl_val_get_num_si(v))
		C.isl_val_free(v)
	}
	return p
}
