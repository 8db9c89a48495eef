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
	"go/token"
	"slices"

	"github.com/gx-org/tlc/build/ir/annotations"
	"github.com/gx-org/tlc/build/ir/irkind"
	"github.com/pkg/errors"
)

// Expr is a handle on an expression node stored in an arena.
// Two expressions of the same arena are structurally equal if and only if
// their handles are equal. The zero value is a nil expression.
type Expr struct {
	arena *Arena
	idx   int32
}

var _ annotations.Annotated = Expr{}

func (e Expr) node() *node {
	return &e.arena.nodes[e.idx]
}

// IsNil returns true if the expression is the zero value.
func (e Expr) IsNil() bool {
	return e.arena == nil
}

// Arena owning the expression.
func (e Expr) Arena() *Arena {
	return e.arena
}

// ID returns the index of the node in its arena.
func (e Expr) ID() int {
	return int(e.idx)
}

// Kind of the expression node.
func (e Expr) Kind() NodeKind {
	if e.IsNil() {
		return InvalidNode
	}
	return e.node().kind
}

// Type of the value computed by the expression.
func (e Expr) Type() Type {
	if e.IsNil() {
		return InvalidType()
	}
	return e.node().typ
}

// Op returns the operator of a binary or unary expression.
func (e Expr) Op() token.Token {
	return e.node().op
}

// Var returns the variable of a reference, the index of a sum or a loop,
// or the variable defined by a local definition.
func (e Expr) Var() VarID {
	return e.node().vr
}

// Decl returns the declaration of the variable returned by Var.
func (e Expr) Decl() *VarDecl {
	return e.arena.MustVar(e.Var())
}

// Intrinsic returns the function called by a call expression.
func (e Expr) Intrinsic() Intrinsic {
	return Intrinsic(e.node().name)
}

// MacroName returns the name of a macro.
func (e Expr) MacroName() string {
	return e.node().name
}

// Value returns the value of a literal: a bool, an int64, a float64 or a complex128.
func (e Expr) Value() any {
	return e.node().val
}

// Int returns the value of an integer literal.
func (e Expr) Int() (int64, bool) {
	if e.Kind() != LiteralNode {
		return 0, false
	}
	v, ok := e.node().val.(int64)
	return v, ok
}

// TargetType returns the type of a conversion or the type built by a construct expression.
func (e Expr) TargetType() Type {
	return e.node().aux
}

// NumChildren returns the number of children of the node.
func (e Expr) NumChildren() int {
	if e.IsNil() {
		return 0
	}
	return len(e.node().children)
}

// Child returns the ith child of the node.
func (e Expr) Child(i int) Expr {
	return e.node().children[i]
}

// Children returns the ordered list of the children of the node.
func (e Expr) Children() []Expr {
	if e.IsNil() {
		return nil
	}
	return slices.Clone(e.node().children)
}

// X returns the first operand of a binary, unary, subscript, conversion or delta expression.
func (e Expr) X() Expr { return e.Child(0) }

// Y returns the second operand of a binary, subscript or delta expression.
func (e Expr) Y() Expr { return e.Child(1) }

// Body returns the body of a sum, a loop or a spawn expression.
func (e Expr) Body() Expr {
	switch e.Kind() {
	case ForNode, ForAllNode:
		return e.Child(2)
	}
	return e.Child(0)
}

// Lower returns the inclusive lower bound of a loop.
func (e Expr) Lower() Expr { return e.Child(0) }

// Upper returns the exclusive upper bound of a loop.
func (e Expr) Upper() Expr { return e.Child(1) }

// Else returns the else branch of an if expression or a nil expression if there is none.
func (e Expr) Else() Expr {
	if e.NumChildren() < 3 {
		return Expr{}
	}
	return e.Child(2)
}

func arity(kind NodeKind, n int) bool {
	switch kind {
	case LiteralNode, VarRefNode, IndexRefNode:
		return n == 0
	case UnaryNode, SumNode, ConvertNode, LocalDefNode, SpawnNode:
		return n == 1
	case BinaryNode, SubscriptNode, DeltaNode:
		return n == 2
	case ForNode, ForAllNode:
		return n == 3
	case IfNode:
		return n == 2 || n == 3
	}
	return true
}

// WithChildren returns the node rebuilt with new children.
// The intrinsic data of the node (operator, variable, type...) is preserved.
// For all expressions e, e.WithChildren(e.Children()) == e.
// Panics if the number of children does not match the kind of the node.
func (e Expr) WithChildren(children []Expr) Expr {
	n := *e.node()
	if !arity(n.kind, len(children)) {
		panic(errors.Errorf("cannot rebuild %s node with %d children", n.kind, len(children)))
	}
	n.children = children
	return e.arena.intern(n)
}

// WithVar returns the node rebuilt with a different variable.
func (e Expr) WithVar(id VarID) Expr {
	n := *e.node()
	n.vr = id
	return e.arena.intern(n)
}

// Annotations returns the annotations of the node.
// Annotations are shared by all the occurrences of structurally equal nodes.
func (e Expr) Annotations() *annotations.Annotations {
	anns := e.arena.anns[e.idx]
	if anns == nil {
		anns = &annotations.Annotations{}
		e.arena.anns[e.idx] = anns
	}
	return anns
}

func inferType(e Expr) Type {
	n := e.node()
	switch n.kind {
	case LiteralNode, ConvertNode, ConstructNode:
		return n.aux
	case VarRefNode, IndexRefNode:
		decl, err := e.arena.Var(n.vr)
		if err != nil {
			return InvalidType()
		}
		return decl.Type
	case BinaryNode:
		switch {
		case IsAssign(n.op):
			return VoidType{}
		case IsComparison(n.op):
			return BoolType()
		}
		xt, yt := n.children[0].Type(), n.children[1].Type()
		if xt.Kind() == irkind.Index && yt.Kind() != irkind.Index {
			return yt
		}
		return xt
	case UnaryNode:
		if n.op == token.NOT {
			return BoolType()
		}
		return n.children[0].Type()
	case SubscriptNode:
		tensor, ok := n.children[0].Type().(*TensorType)
		if !ok {
			return InvalidType()
		}
		num := 1
		if tuple, ok := n.children[1].Type().(*TupleType); ok {
			num = len(tuple.Elems)
		}
		return tensor.Sub(num)
	case SumNode:
		return n.children[0].Type()
	case DeltaNode:
		return IndexType()
	case CallNode:
		switch Intrinsic(n.name) {
		case LowerBound, UpperBound:
			return IndexType()
		case Select:
			if len(n.children) == 3 {
				return n.children[1].Type()
			}
		default:
			if len(n.children) > 0 {
				return n.children[0].Type()
			}
		}
		return InvalidType()
	case CompoundNode:
		if len(n.children) == 0 {
			return VoidType{}
		}
		return n.children[len(n.children)-1].Type()
	case IfNode:
		if len(n.children) == 3 {
			thenT := n.children[1].Type()
			if thenT.Equal(n.children[2].Type()) {
				return thenT
			}
		}
		return VoidType{}
	}
	return VoidType{}
}

// ----------------------------------------------------------------------------
// Node constructors.

func normalizeLiteral(typ Type, val any) any {
	switch v := val.(type) {
	case int:
		val = int64(v)
	case int32:
		val = int64(v)
	case uint32:
		val = int64(v)
	case float32:
		val = float64(v)
	case complex64:
		val = complex128(v)
	}
	knd := typ.Kind()
	switch v := val.(type) {
	case int64:
		switch {
		case irkind.IsFloat(knd):
			return float64(v)
		case irkind.IsComplex(knd):
			return complex(float64(v), 0)
		case irkind.IsInteger(knd):
			return v
		}
	case float64:
		switch {
		case irkind.IsFloat(knd):
			return v
		case irkind.IsComplex(knd):
			return complex(v, 0)
		}
	case complex128:
		if irkind.IsComplex(knd) {
			return v
		}
	case bool:
		if knd == irkind.Bool {
			return v
		}
	}
	panic(errors.Errorf("cannot use %v (%T) as a %s literal", val, val, typ))
}

// Literal returns a constant of a scalar type.
// Panics if the value cannot be represented by the type.
func (a *Arena) Literal(typ Type, val any) Expr {
	return a.intern(node{
		kind: LiteralNode,
		aux:  typ,
		val:  normalizeLiteral(typ, val),
	})
}

// Index returns an index constant.
func (a *Arena) Index(v int64) Expr {
	return a.Literal(IndexType(), v)
}

// Int returns an int64 constant.
func (a *Arena) Int(v int64) Expr {
	return a.Literal(Int64Type(), v)
}

// Float returns a float64 constant.
func (a *Arena) Float(v float64) Expr {
	return a.Literal(Float64Type(), v)
}

// Zero returns the zero value of the element type of a type.
func (a *Arena) Zero(typ Type) Expr {
	elem := ElementType(typ)
	if elem.Kind() == irkind.Bool {
		return a.Literal(elem, false)
	}
	return a.Literal(elem, int64(0))
}

// One returns the unit value of the element type of a type.
func (a *Arena) One(typ Type) Expr {
	elem := ElementType(typ)
	if elem.Kind() == irkind.Bool {
		return a.Literal(elem, true)
	}
	return a.Literal(elem, int64(1))
}

// Ref returns a reference to a variable.
// References to indices are index references.
func (a *Arena) Ref(id VarID) Expr {
	kind := VarRefNode
	if a.MustVar(id).Role.IsIndex() {
		kind = IndexRefNode
	}
	return a.intern(node{kind: kind, vr: id})
}

// Binary returns a binary operation.
func (a *Arena) Binary(op token.Token, x, y Expr) Expr {
	return a.intern(node{kind: BinaryNode, op: op, children: []Expr{x, y}})
}

// Add returns x + y.
func (a *Arena) Add(x, y Expr) Expr { return a.Binary(token.ADD, x, y) }

// Mul returns x * y.
func (a *Arena) Mul(x, y Expr) Expr { return a.Binary(token.MUL, x, y) }

// Assign returns the statement target = value.
func (a *Arena) Assign(target, value Expr) Expr { return a.Binary(token.ASSIGN, target, value) }

// AddAssign returns the statement target += value.
func (a *Arena) AddAssign(target, value Expr) Expr {
	return a.Binary(token.ADD_ASSIGN, target, value)
}

// Unary returns a unary operation.
func (a *Arena) Unary(op token.Token, x Expr) Expr {
	return a.intern(node{kind: UnaryNode, op: op, children: []Expr{x}})
}

// Subscript returns x[index].
// The index is either a scalar index or a tuple construct (a multi-index).
func (a *Arena) Subscript(x, index Expr) Expr {
	return a.intern(node{kind: SubscriptNode, children: []Expr{x, index}})
}

// Sum returns the sum of body over the range of the index.
func (a *Arena) Sum(index VarID, body Expr) Expr {
	return a.intern(node{kind: SumNode, vr: index, children: []Expr{body}})
}

// For returns a sequential loop of the index over [lower, upper).
func (a *Arena) For(index VarID, lower, upper, body Expr) Expr {
	return a.intern(node{kind: ForNode, vr: index, children: []Expr{lower, upper, body}})
}

// ForAll returns a loop of the index over [lower, upper) with independent iterations.
func (a *Arena) ForAll(index VarID, lower, upper, body Expr) Expr {
	return a.intern(node{kind: ForAllNode, vr: index, children: []Expr{lower, upper, body}})
}

// Loop returns a For or a ForAll loop given its kind.
func (a *Arena) Loop(kind NodeKind, index VarID, lower, upper, body Expr) Expr {
	if !kind.IsLoop() {
		panic(errors.Errorf("%s is not a loop kind", kind))
	}
	return a.intern(node{kind: kind, vr: index, children: []Expr{lower, upper, body}})
}

// Delta returns the Kronecker delta of two indices.
func (a *Arena) Delta(i, j Expr) Expr {
	return a.intern(node{kind: DeltaNode, children: []Expr{i, j}})
}

// Call returns a call to an intrinsic function.
func (a *Arena) Call(fn Intrinsic, args ...Expr) Expr {
	return a.intern(node{kind: CallNode, name: string(fn), children: args})
}

// Compound returns a sequence of expressions.
func (a *Arena) Compound(exprs ...Expr) Expr {
	return a.intern(node{kind: CompoundNode, children: exprs})
}

// Convert returns the conversion of x to a type.
func (a *Arena) Convert(typ Type, x Expr) Expr {
	return a.intern(node{kind: ConvertNode, aux: typ, children: []Expr{x}})
}

// Construct returns a value of a type built from its elements.
func (a *Arena) Construct(typ Type, args ...Expr) Expr {
	return a.intern(node{kind: ConstructNode, aux: typ, children: args})
}

// MultiIndex returns a tuple of indices.
func (a *Arena) MultiIndex(indices ...Expr) Expr {
	types := make([]Type, len(indices))
	for i, index := range indices {
		types[i] = index.Type()
	}
	return a.Construct(Tuple(types...), indices...)
}

// LocalDef defines a local variable.
func (a *Arena) LocalDef(id VarID, init Expr) Expr {
	return a.intern(node{kind: LocalDefNode, vr: id, children: []Expr{init}})
}

// If returns a conditional. The else branch is omitted if els is nil.
func (a *Arena) If(cond, then, els Expr) Expr {
	children := []Expr{cond, then}
	if !els.IsNil() {
		children = append(children, els)
	}
	return a.intern(node{kind: IfNode, children: children})
}

// Macro returns a call to a macro.
func (a *Arena) Macro(name string, args ...Expr) Expr {
	return a.intern(node{kind: MacroNode, name: name, children: args})
}

// Spawn returns an asynchronous execution of body.
func (a *Arena) Spawn(body Expr) Expr {
	return a.intern(node{kind: SpawnNode, children: []Expr{body}})
}
