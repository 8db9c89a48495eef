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

var (
	accessInfoClass = class[C.isl_union_access_info]{
		name: "union access info",
		copy: func(p *C.isl_union_access_info) *C.isl_union_access_info { return C.isl_union_access_info_copy(p) },
		free: func(p *C.isl_union_access_info) { C.isl_union_access_info_free(p) },
	}
	flowClass = class[C.isl_union_flow]{
		name: "union flow",
		free: func(p *C.isl_union_flow) { C.isl_union_flow_free(p) },
		str:  func(p *C.isl_union_flow) *C.char { return C.isl_union_flow_to_str(p) },
	}
)

// UnionAccessInfo describes the accesses of a dataflow problem:
// the sink accesses, the sources which may or must write the data read by
// the sinks, and the schedule ordering the accesses.
type UnionAccessInfo struct {
	object[C.isl_union_access_info]
}

// NewUnionAccessInfo returns a dataflow problem given its sink accesses.
func NewUnionAccessInfo(sink *UnionMap) (*UnionAccessInfo, error) {
	if err := checkAlive(sink); err != nil {
		return nil, err
	}
	return newAccessInfo(sink.ctx, "access info from sink", C.isl_union_access_info_from_sink(sink.dup()))
}

func newAccessInfo(ctx *Ctx, op string, ptr *C.isl_union_access_info) (*UnionAccessInfo, error) {
	obj, err := newObject(ctx, &accessInfoClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &UnionAccessInfo{obj}, nil
}

func (ai *UnionAccessInfo) set(op string, m *UnionMap, f func(*C.isl_union_access_info, *C.isl_union_map) *C.isl_union_access_info) error {
	if err := checkAlive(ai, m); err != nil {
		return err
	}
	ptr := f(ai.forget(), m.dup())
	next, err := newAccessInfo(ai.ctx, op, ptr)
	if err != nil {
		return err
	}
	*ai = *next
	return nil
}

// SetMustSource sets the accesses which are guaranteed to write.
func (ai *UnionAccessInfo) SetMustSource(m *UnionMap) error {
	return ai.set("set must source", m, func(x *C.isl_union_access_info, y *C.isl_union_map) *C.isl_union_access_info {
		return C.isl_union_access_info_set_must_source(x, y)
	})
}

// SetMaySource sets the accesses which may write.
func (ai *UnionAccessInfo) SetMaySource(m *UnionMap) error {
	return ai.set("set may source", m, func(x *C.isl_union_access_info, y *C.isl_union_map) *C.isl_union_access_info {
		return C.isl_union_access_info_set_may_source(x, y)
	})
}

// SetScheduleMap sets the order of execution of the statement instances.
func (ai *UnionAccessInfo) SetScheduleMap(m *UnionMap) error {
	return ai.set("set schedule map", m, func(x *C.isl_union_access_info, y *C.isl_union_map) *C.isl_union_access_info {
		return C.isl_union_access_info_set_schedule_map(x, y)
	})
}

// ComputeFlow computes the exact dataflow of the problem.
func (ai *UnionAccessInfo) ComputeFlow() (*UnionFlow, error) {
	if err := checkAlive(ai); err != nil {
		return nil, err
	}
	obj, err := newObject(ai.ctx, &flowClass, "compute flow", C.isl_union_access_info_compute_flow(ai.dup()))
	if err != nil {
		return nil, err
	}
	return &UnionFlow{obj}, nil
}

// UnionFlow is the result of a dataflow analysis.
type UnionFlow struct {
	object[C.isl_union_flow]
}

func (f *UnionFlow) get(op string, g func(*C.isl_union_flow) *C.isl_union_map) (*UnionMap, error) {
	if err := checkAlive(f); err != nil {
		return nil, err
	}
	return newUnionMap(f.ctx, op, g(f.ptr))
}

// MustDependence returns the dependences from must sources to sinks
// for which the source is known to be the last writer.
func (f *UnionFlow) MustDependence() (*UnionMap, error) {
	return f.get("must dependence", func(p *C.isl_union_flow) *C.isl_union_map {
		return C.isl_union_flow_get_must_dependence(p)
	})
}

// MayDependence returns all the dependences, including the must dependences.
func (f *UnionFlow) MayDependence() (*UnionMap, error) {
	return f.get("may dependence", func(p *C.isl_union_flow) *C.isl_union_map {
		return C.isl_union_flow_get_may_dependence(p)
	})
}

// MustNoSource returns the sink accesses without any source.
func (f *UnionFlow) MustNoSource() (*UnionMap, error) {
	return f.get("must no source", func(p *C.isl_union_flow) *C.isl_union_map {
		return C.isl_union_flow_get_must_no_source(p)
	})
}

// MayNoSource returns the sink accesses which may have no source.
func (f *UnionFlow) MayNoSource() (*UnionMap, error) {
	return f.get("may no source", func(p *C.isl_union_flow) *C.isl_union_map {
		return C.isl_union_flow_get_may_no_source(p)
	})
}
