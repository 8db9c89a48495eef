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

var unionMapClass = class[C.isl_union_map]{
	name: "union map",
	copy: func(p *C.isl_union_map) *C.isl_union_map { return C.isl_union_map_copy(p) },
	free: func(p *C.isl_union_map) { C.isl_union_map_free(p) },
	str:  func(p *C.isl_union_map) *C.char { return C.isl_union_map_to_str(p) },
}

// UnionMap is a relation between integer points of several spaces.
type UnionMap struct {
	object[C.isl_union_map]
}

func newUnionMap(ctx *Ctx, op string, ptr *C.isl_union_map) (*UnionMap, error) {
	obj, err := newObject(ctx, &unionMapClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &UnionMap{obj}, nil
}

// ReadUnionMap parses a union map, for example "{ S[i] -> A[i + 1] }".
func ReadUnionMap(ctx *Ctx, s string) (*UnionMap, error) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return newUnionMap(ctx, "read union map", C.isl_union_map_read_from_str(ctx.ptr, cs))
}

// EmptyUnionMap returns a relation without any pair.
func EmptyUnionMap(ctx *Ctx) (*UnionMap, error) {
	return ReadUnionMap(ctx, "{ }")
}

// Copy returns a deep copy of the relation.
func (m *UnionMap) Copy() (*UnionMap, error) {
	if err := checkAlive(m); err != nil {
		return nil, err
	}
	return newUnionMap(m.ctx, "copy union map", m.dup())
}

func (m *UnionMap) binary(op string, other *UnionMap, f func(x, y *C.isl_union_map) *C.isl_union_map) (*UnionMap, error) {
	if err := checkAlive(m, other); err != nil {
		return nil, err
	}
	return newUnionMap(m.ctx, op, f(m.dup(), other.dup()))
}

func (m *UnionMap) unary(op string, f func(x *C.isl_union_map) *C.isl_union_map) (*UnionMap, error) {
	if err := checkAlive(m); err != nil {
		return nil, err
	}
	return newUnionMap(m.ctx, op, f(m.dup()))
}

// Union returns the pairs in m or in other.
func (m *UnionMap) Union(other *UnionMap) (*UnionMap, error) {
	return m.binary("union", other, func(x, y *C.isl_union_map) *C.isl_union_map {
		return C.isl_union_map_union(x, y)
	})
}

// Intersect returns the pairs in m and in other.
func (m *UnionMap) Intersect(other *UnionMap) (*UnionMap, error) {
	return m.binary("intersect", other, func(x, y *C.isl_union_map) *C.isl_union_map {
		return C.isl_union_map_intersect(x, y)
	})
}

// Subtract returns the pairs in m which are not in other.
func (m *UnionMap) Subtract(other *UnionMap) (*UnionMap, error) {
	return m.binary("subtract", other, func(x, y *C.isl_union_map) *C.isl_union_map {
		return C.isl_union_map_subtract(x, y)
	})
}

// ApplyRange returns the composition of m followed by other.
func (m *UnionMap) ApplyRange(other *UnionMap) (*UnionMap, error) {
	return m.binary("apply range", other, func(x, y *C.isl_union_map) *C.isl_union_map {
		return C.isl_union_map_apply_range(x, y)
	})
}

// ApplyDomain applies other to the domain of m.
func (m *UnionMap) ApplyDomain(other *UnionMap) (*UnionMap, error) {
	return m.binary("apply domain", other, func(x, y *C.isl_union_map) *C.isl_union_map {
		return C.isl_union_map_apply_domain(x, y)
	})
}

// LexLt returns the pairs (a, b) such that the image of a by m is
// lexicographically smaller than the image of b by other.
func (m *UnionMap) LexLt(other *UnionMap) (*UnionMap, error) {
	return m.binary("lex lt", other, func(x, y *C.isl_union_map) *C.isl_union_map {
		return C.isl_union_map_lex_lt_union_map(x, y)
	})
}

// Reverse returns the inverse relation.
func (m *UnionMap) Reverse() (*UnionMap, error) {
	return m.unary("reverse", func(x *C.isl_union_map) *C.isl_union_map {
		return C.isl_union_map_reverse(x)
	})
}

// Coalesce simplifies the representation of the relation.
func (m *UnionMap) Coalesce() (*UnionMap, error) {
	return m.unary("coalesce", func(x *C.isl_union_map) *C.isl_union_map {
		return C.isl_union_map_coalesce(x)
	})
}

// Flatten pads the ranges of a schedule with zeros so that all its
// images are in the same anonymous space and can be compared.
func (m *UnionMap) Flatten() (*UnionMap, error) {
	return m.unary("flatten", func(x *C.isl_union_map) *C.isl_union_map {
		return C.tlc_flat_schedule(x)
	})
}

// IntersectDomain restricts the domain of the relation.
func (m *UnionMap) IntersectDomain(s *UnionSet) (*UnionMap, error) {
	if err := checkAlive(m, s); err != nil {
		return nil, err
	}
	return newUnionMap(m.ctx, "intersect domain", C.isl_union_map_intersect_domain(m.dup(), s.dup()))
}

// IntersectRange restricts the range of the relation.
func (m *UnionMap) IntersectRange(s *UnionSet) (*UnionMap, error) {
	if err := checkAlive(m, s); err != nil {
		return nil, err
	}
	return newUnionMap(m.ctx, "intersect range", C.isl_union_map_intersect_range(m.dup(), s.dup()))
}

// Domain returns the domain of the relation.
func (m *UnionMap) Domain() (*UnionSet, error) {
	if err := checkAlive(m); err != nil {
		return nil, err
	}
	return newUnionSet(m.ctx, "domain", C.isl_union_map_domain(m.dup()))
}

// Range returns the range of the relation.
func (m *UnionMap) Range() (*UnionSet, error) {
	if err := checkAlive(m); err != nil {
		return nil, err
	}
	return newUnionSet(m.ctx, "range", C.isl_union_map_range(m.dup()))
}

// Deltas returns the differences between the images and the elements of the relation.
func (m *UnionMap) Deltas() (*UnionSet, error) {
	if err := checkAlive(m); err != nil {
		return nil, err
	}
	return newUnionSet(m.ctx, "deltas", C.isl_union_map_deltas(m.dup()))
}

// IsEmpty returns true if the relation has no pair.
func (m *UnionMap) IsEmpty() (bool, error) {
	if err := checkAlive(m); err != nil {
		return false, err
	}
	return m.ctx.toBool("union map is empty", C.isl_union_map_is_empty(m.ptr))
}

// IsEqual returns true if two relations have the same pairs.
func (m *UnionMap) IsEqual(other *UnionMap) (bool, error) {
	if err := checkAlive(m, other); err != nil {
		return false, err
	}
	return m.ctx.toBool("union map is equal", C.isl_union_map_is_equal(m.ptr, other.ptr))
}

// IsSubset returns true if all the pairs of m are in other.
func (m *UnionMap) IsSubset(other *UnionMap) (bool, error) {
	if err := checkAlive(m, other); err != nil {
		return false, err
	}
	return m.ctx.toBool("union map is subset", C.isl_union_map_is_subset(m.ptr, other.ptr))
}
