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

package ir

import (
	"fmt"
	"go/token"
	"math"
	"strconv"
	"strings"

	"github.com/gx-org/tlc/build/ir/annotations"
	"github.com/pkg/errors"
)

type (
	// VarID identifies a variable declaration in an arena.
	// The zero value is an invalid identifier.
	VarID struct {
		slot uint32
		gen  uint32
	}

	// VarDecl declares a variable: a parameter, a local variable or an index.
	VarDecl struct {
		ID     VarID
		Name   string
		Type   Type
		Intent Intent
		Role   Role

		anns annotations.Annotations
	}

	varSlot struct {
		gen  uint32
		decl *VarDecl
	}

	node struct {
		kind     NodeKind
		typ      Type
		op       token.Token
		vr       VarID
		name     string
		aux      Type
		val      any
		children []Expr
	}

	nodeKey struct {
		kind     NodeKind
		op       token.Token
		vr       VarID
		name     string
		aux      string
		val      string
		children string
	}

	// Arena owns variable declarations and expression nodes.
	// An arena is not safe for concurrent use.
	Arena struct {
		vars  []varSlot
		free  []uint32
		nodes []node
		index map[nodeKey]int32
		anns  map[int32]*annotations.Annotations
	}
)

// NewArena returns a new empty arena.
func NewArena() *Arena {
	return &Arena{
		index: make(map[nodeKey]int32),
		anns:  make(map[int32]*annotations.Annotations),
	}
}

// IsValid returns true if the identifier has been returned by an arena.
func (id VarID) IsValid() bool {
	return id.slot != 0
}

// String representation of the identifier.
func (id VarID) String() string {
	return fmt.Sprintf("#%d.%d", id.slot, id.gen)
}

// Annotations returns the annotations of the declaration.
func (d *VarDecl) Annotations() *annotations.Annotations {
	return &d.anns
}

// ShortString returns the name of the variable and its identifier.
func (d *VarDecl) ShortString() string {
	return d.Name + d.ID.String()
}

// String representation of the declaration.
func (d *VarDecl) String() string {
	var b strings.Builder
	if d.Intent != Generic {
		b.WriteString(d.Intent.String())
		b.WriteString(" ")
	}
	b.WriteString(d.Name)
	b.WriteString(" ")
	b.WriteString(d.Type.String())
	return b.String()
}

// NewVar declares a new variable in the arena.
func (a *Arena) NewVar(name string, typ Type, intent Intent, role Role) *VarDecl {
	var slot uint32
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.vars = append(a.vars, varSlot{})
		slot = uint32(len(a.vars))
	}
	s := &a.vars[slot-1]
	decl := &VarDecl{
		ID:     VarID{slot: slot, gen: s.gen},
		Name:   name,
		Type:   typ,
		Intent: intent,
		Role:   role,
	}
	s.decl = decl
	return decl
}

// NewIndex declares a new concrete index.
func (a *Arena) NewIndex(name string) *VarDecl {
	return a.NewVar(name, IndexType(), Generic, Index)
}

// NewAbstractIndex declares a new abstract index.
func (a *Arena) NewAbstractIndex(name string) *VarDecl {
	return a.NewVar(name, IndexType(), Generic, AbstractIndex)
}

// NewParam declares a new function parameter.
func (a *Arena) NewParam(name string, typ Type, intent Intent) *VarDecl {
	return a.NewVar(name, typ, intent, Param)
}

// NewLocal declares a new local variable.
func (a *Arena) NewLocal(name string, typ Type) *VarDecl {
	return a.NewVar(name, typ, InOut, Local)
}

// Var returns the declaration of a variable.
// Returns an error if the identifier is invalid or has been released.
func (a *Arena) Var(id VarID) (*VarDecl, error) {
	if !id.IsValid() || int(id.slot) > len(a.vars) {
		return nil, errors.Errorf("invalid variable identifier %s", id)
	}
	s := a.vars[id.slot-1]
	if s.decl == nil || s.gen != id.gen {
		return nil, errors.Errorf("stale variable identifier %s", id)
	}
	return s.decl, nil
}

// MustVar returns the declaration of a variable.
// Panics if the identifier is invalid or stale.
func (a *Arena) MustVar(id VarID) *VarDecl {
	decl, err := a.Var(id)
	if err != nil {
		panic(err)
	}
	return decl
}

// Release a variable declaration. The slot of the variable may be reused
// by a later declaration and the identifier becomes stale.
func (a *Arena) Release(id VarID) error {
	if _, err := a.Var(id); err != nil {
		return err
	}
	s := &a.vars[id.slot-1]
	s.gen++
	s.decl = nil
	a.free = append(a.free, id.slot)
	return nil
}

// NumNodes returns the number of distinct nodes interned in the arena.
func (a *Arena) NumNodes() int {
	return len(a.nodes)
}

func literalKey(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return "i" + strconv.FormatInt(v, 10)
	case float64:
		return "f" + strconv.FormatUint(math.Float64bits(v), 16)
	case complex128:
		return fmt.Sprintf("c%x:%x", math.Float64bits(real(v)), math.Float64bits(imag(v)))
	}
	panic(errors.Errorf("literal value %v of type %T not supported", val, val))
}

func childrenKey(children []Expr) string {
	var b []byte
	for i, child := range children {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(child.idx), 10)
	}
	return string(b)
}

func typeKey(typ Type) string {
	if typ == nil {
		return ""
	}
	return typ.typeKey()
}

// intern returns the expression of a node, adding the node to the arena
// if no structurally equal node exists.
func (a *Arena) intern(n node) Expr {
	for _, child := range n.children {
		if child.arena != a {
			panic(errors.Errorf("%s node: child expression %v belongs to another arena", n.kind, child))
		}
	}
	key := nodeKey{
		kind:     n.kind,
		op:       n.op,
		vr:       n.vr,
		name:     n.name,
		aux:      typeKey(n.aux),
		val:      literalKey(n.val),
		children: childrenKey(n.children),
	}
	if idx, ok := a.index[key]; ok {
		return Expr{arena: a, idx: idx}
	}
	idx := int32(len(a.nodes))
	n.children = append([]Expr(nil), n.children...)
	a.nodes = append(a.nodes, n)
	a.index[key] = idx
	e := Expr{arena: a, idx: idx}
	a.nodes[idx].typ = inferType(e)
	return e
}
