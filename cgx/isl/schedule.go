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
	"fmt"

	"github.com/gx-org/tlc/build/fmterr"
	"github.com/pkg/errors"
)

var (
	constraintsClass = class[C.isl_schedule_constraints]{
		name: "schedule constraints",
		copy: func(p *C.isl_schedule_constraints) *C.isl_schedule_constraints {
			return C.isl_schedule_constraints_copy(p)
		},
		free: func(p *C.isl_schedule_constraints) { C.isl_schedule_constraints_free(p) },
		str:  func(p *C.isl_schedule_constraints) *C.char { return C.isl_schedule_constraints_to_str(p) },
	}
	scheduleClass = class[C.isl_schedule]{
		name: "schedule",
		copy: func(p *C.isl_schedule) *C.isl_schedule { return C.isl_schedule_copy(p) },
		free: func(p *C.isl_schedule) { C.isl_schedule_free(p) },
		str:  func(p *C.isl_schedule) *C.char { return C.isl_schedule_to_str(p) },
	}
	scheduleNodeClass = class[C.isl_schedule_node]{
		name: "schedule node",
		copy: func(p *C.isl_schedule_node) *C.isl_schedule_node { return C.isl_schedule_node_copy(p) },
		free: func(p *C.isl_schedule_node) { C.isl_schedule_node_free(p) },
		str:  func(p *C.isl_schedule_node) *C.char { return C.isl_schedule_node_to_str(p) },
	}
)

// ScheduleConstraints are the constraints given to the scheduler.
type ScheduleConstraints struct {
	object[C.isl_schedule_constraints]
}

func newConstraints(ctx *Ctx, op string, ptr *C.isl_schedule_constraints) (*ScheduleConstraints, error) {
	obj, err := newObject(ctx, &constraintsClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &ScheduleConstraints{obj}, nil
}

// NewScheduleConstraints returns constraints on the schedule of a domain,
// without any dependence.
func NewScheduleConstraints(domain *UnionSet) (*ScheduleConstraints, error) {
	if err := checkAlive(domain); err != nil {
		return nil, err
	}
	return newConstraints(domain.ctx, "schedule constraints on domain", C.isl_schedule_constraints_on_domain(domain.dup()))
}

// Copy returns a deep copy of the constraints.
func (sc *ScheduleConstraints) Copy() (*ScheduleConstraints, error) {
	if err := checkAlive(sc); err != nil {
		return nil, err
	}
	return newConstraints(sc.ctx, "copy schedule constraints", sc.dup())
}

func (sc *ScheduleConstraints) setMap(op string, m *UnionMap, f func(*C.isl_schedule_constraints, *C.isl_union_map) *C.isl_schedule_constraints) error {
	if err := checkAlive(sc, m); err != nil {
		return err
	}
	next, err := newConstraints(sc.ctx, op, f(sc.forget(), m.dup()))
	if err != nil {
		return err
	}
	*sc = *next
	return nil
}

// SetValidity sets the dependences which must be respected by the schedule.
func (sc *ScheduleConstraints) SetValidity(m *UnionMap) error {
	return sc.setMap("set validity", m, func(x *C.isl_schedule_constraints, y *C.isl_union_map) *C.isl_schedule_constraints {
		return C.isl_schedule_constraints_set_validity(x, y)
	})
}

// SetCoincidence sets the dependences which should have a zero distance
// in the members of a band marked as coincident.
func (sc *ScheduleConstraints) SetCoincidence(m *UnionMap) error {
	return sc.setMap("set coincidence", m, func(x *C.isl_schedule_constraints, y *C.isl_union_map) *C.isl_schedule_constraints {
		return C.isl_schedule_constraints_set_coincidence(x, y)
	})
}

// SetProximity sets the dependences which distance should be minimized.
func (sc *ScheduleConstraints) SetProximity(m *UnionMap) error {
	return sc.setMap("set proximity", m, func(x *C.isl_schedule_constraints, y *C.isl_union_map) *C.isl_schedule_constraints {
		return C.isl_schedule_constraints_set_proximity(x, y)
	})
}

// SetContext sets the constraints on the parameters.
func (sc *ScheduleConstraints) SetContext(context *Set) error {
	if err := checkAlive(sc, context); err != nil {
		return err
	}
	next, err := newConstraints(sc.ctx, "set context", C.isl_schedule_constraints_set_context(sc.forget(), context.dup()))
	if err != nil {
		return err
	}
	*sc = *next
	return nil
}

// ComputeSchedule computes a schedule satisfying the constraints.
// Returns an error wrapping fmterr.ErrInfeasibleSchedule if no schedule exists.
func (sc *ScheduleConstraints) ComputeSchedule() (*Schedule, error) {
	if err := checkAlive(sc); err != nil {
		return nil, err
	}
	ptr := C.isl_schedule_constraints_compute_schedule(sc.dup())
	if ptr == nil {
		return nil, errors.Wrap(fmterr.ErrInfeasibleSchedule, sc.ctx.lastError("compute schedule").Error())
	}
	return newSchedule(sc.ctx, "compute schedule", ptr)
}

// Schedule is a tree of schedule nodes ordering the instances of statements.
type Schedule struct {
	object[C.isl_schedule]
}

func newSchedule(ctx *Ctx, op string, ptr *C.isl_schedule) (*Schedule, error) {
	obj, err := newObject(ctx, &scheduleClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &Schedule{obj}, nil
}

// Copy returns a deep copy of the schedule.
func (s *Schedule) Copy() (*Schedule, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newSchedule(s.ctx, "copy schedule", s.dup())
}

// Map returns the schedule as a relation from statement instances to
// multi-dimensional dates.
func (s *Schedule) Map() (*UnionMap, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newUnionMap(s.ctx, "schedule map", C.isl_schedule_get_map(s.ptr))
}

// Domain returns the statement instances scheduled by the schedule.
func (s *Schedule) Domain() (*UnionSet, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newUnionSet(s.ctx, "schedule domain", C.isl_schedule_get_domain(s.ptr))
}

// Root returns the root node of the schedule tree.
func (s *Schedule) Root() (*ScheduleNode, error) {
	if err := checkAlive(s); err != nil {
		return nil, err
	}
	return newScheduleNode(s.ctx, "schedule root", C.isl_schedule_get_root(s.ptr))
}

// NodeType is the type of a node of a schedule tree.
type NodeType int

// Types of schedule tree nodes.
const (
	NodeError NodeType = iota
	NodeBand
	NodeContext
	NodeDomain
	NodeExpansion
	NodeExtension
	NodeFilter
	NodeLeaf
	NodeGuard
	NodeMark
	NodeSequence
	NodeSet
)

var nodeTypeNames = map[NodeType]string{
	NodeError:     "error",
	NodeBand:      "band",
	NodeContext:   "context",
	NodeDomain:    "domain",
	NodeExpansion: "expansion",
	NodeExtension: "extension",
	NodeFilter:    "filter",
	NodeLeaf:      "leaf",
	NodeGuard:     "guard",
	NodeMark:      "mark",
	NodeSequence:  "sequence",
	NodeSet:       "set",
}

func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// ScheduleNode is a position in a schedule tree.
type ScheduleNode struct {
	object[C.isl_schedule_node]
}

func newScheduleNode(ctx *Ctx, op string, ptr *C.isl_schedule_node) (*ScheduleNode, error) {
	obj, err := newObject(ctx, &scheduleNodeClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &ScheduleNode{obj}, nil
}

// Copy returns a deep copy of the node.
func (n *ScheduleNode) Copy() (*ScheduleNode, error) {
	if err := checkAlive(n); err != nil {
		return nil, err
	}
	return newScheduleNode(n.ctx, "copy schedule node", n.dup())
}

// Type returns the type of the node.
func (n *ScheduleNode) Type() NodeType {
	if n.ptr == nil {
		return NodeError
	}
	switch C.isl_schedule_node_get_type(n.ptr) {
	case C.isl_schedule_node_band:
		return NodeBand
	case C.isl_schedule_node_context:
		return NodeContext
	case C.isl_schedule_node_domain:
		return NodeDomain
	case C.isl_schedule_node_expansion:
		return NodeExpansion
	case C.isl_schedule_node_extension:
		return NodeExtension
	case C.isl_schedule_node_filter:
		return NodeFilter
	case C.isl_schedule_node_leaf:
		return NodeLeaf
	case C.isl_schedule_node_guard:
		return NodeGuard
	case C.isl_schedule_node_mark:
		return NodeMark
	case C.isl_schedule_node_sequence:
		return NodeSequence
	case C.isl_schedule_node_set:
		return NodeSet
	}
	return NodeError
}

// NumChildren returns the number of children of the node.
func (n *ScheduleNode) NumChildren() (int, error) {
	if err := checkAlive(n); err != nil {
		return 0, err
	}
	num := int(C.isl_schedule_node_n_children(n.ptr))
	if num < 0 {
		return 0, n.ctx.lastError("schedule node children")
	}
	return num, nil
}

// Child returns the ith child of the node.
func (n *ScheduleNode) Child(i int) (*ScheduleNode, error) {
	if err := checkAlive(n); err != nil {
		return nil, err
	}
	return newScheduleNode(n.ctx, "schedule node child", C.isl_schedule_node_get_child(n.ptr, C.int(i)))
}

// Schedule returns the schedule containing the node.
func (n *ScheduleNode) Schedule() (*Schedule, error) {
	if err := checkAlive(n); err != nil {
		return nil, err
	}
	return newSchedule(n.ctx, "schedule of node", C.isl_schedule_node_get_schedule(n.ptr))
}

func (n *ScheduleNode) checkBand() error {
	if err := checkAlive(n); err != nil {
		return err
	}
	if tp := n.Type(); tp != NodeBand {
		return fmterr.Internalf("isl: %s node is not a band", tp)
	}
	return nil
}

// BandNumMembers returns the number of members of a band node.
func (n *ScheduleNode) BandNumMembers() (int, error) {
	if err := n.checkBand(); err != nil {
		return 0, err
	}
	num := int(C.isl_schedule_node_band_n_member(n.ptr))
	if num < 0 {
		return 0, n.ctx.lastError("band members")
	}
	return num, nil
}

// BandMemberCoincident returns true if the ith member of a band is coincident,
// that is if it carries no coincidence constraint.
func (n *ScheduleNode) BandMemberCoincident(i int) (bool, error) {
	if err := n.checkBand(); err != nil {
		return false, err
	}
	return n.ctx.toBool("band member coincident", C.isl_schedule_node_band_member_get_coincident(n.ptr, C.int(i)))
}

// BandSplit splits a band node after its first pos members.
func (n *ScheduleNode) BandSplit(pos int) (*ScheduleNode, error) {
	if err := n.checkBand(); err != nil {
		return nil, err
	}
	return newScheduleNode(n.ctx, "band split", C.isl_schedule_node_band_split(n.dup(), C.int(pos)))
}

// BandTileSizes returns the vector of tile sizes for the members of a band node.
// sizes must have one element per member.
func (n *ScheduleNode) BandTileSizes(sizes []int64) (*MultiVal, error) {
	members, err := n.BandNumMembers()
	if err != nil {
		return nil, err
	}
	if len(sizes) != members {
		return nil, fmterr.Internalf("isl: %d tile sizes given for a band of %d members", len(sizes), members)
	}
	mv := C.isl_multi_val_zero(C.isl_schedule_node_band_get_space(n.ptr))
	for i, size := range sizes {
		mv = C.isl_multi_val_set_val(mv, C.int(i), C.isl_val_int_from_si(n.ctx.ptr, C.long(size)))
	}
	return newMultiVal(n.ctx, "tile sizes", mv)
}

// BandTile tiles a band node. The returned node is the band of the tile
// loops, which child is the band of the point loops.
func (n *ScheduleNode) BandTile(sizes *MultiVal) (*ScheduleNode, error) {
	if err := n.checkBand(); err != nil {
		return nil, err
	}
	if err := checkAlive(sizes); err != nil {
		return nil, err
	}
	return newScheduleNode(n.ctx, "band tile", C.isl_schedule_node_band_tile(n.dup(), sizes.dup()))
}
