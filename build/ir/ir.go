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

// Package ir is the intermediate representation (IR) of tensor computations.
//
// Expressions are immutable trees stored in an Arena. Nodes are hash-consed:
// structurally equal nodes share the same index in the arena, so that
// comparing two Expr handles with == is a structural comparison.
// Annotations are stored in a side table indexed by node and never take part
// in the structural equality.
//
// Variables (parameters, locals and indices) are declared in the arena and
// identified by a generational VarID, never by their name.
package ir

import (
	"fmt"
	"go/token"
)

// NodeKind is the kind of an expression node.
type NodeKind uint8

// Kinds of expression nodes.
const (
	InvalidNode NodeKind = iota
	// LiteralNode is a constant value.
	LiteralNode
	// VarRefNode references a parameter or a local variable.
	VarRefNode
	// IndexRefNode references an index or an abstract index.
	IndexRefNode
	// BinaryNode is a binary operator, including assignments.
	BinaryNode
	// UnaryNode is a unary operator.
	UnaryNode
	// SubscriptNode subscripts a tensor with an index or a tuple of indices.
	SubscriptNode
	// SumNode sums its body over the range of its index.
	SumNode
	// ForNode is a sequential loop over [Lower, Upper).
	ForNode
	// ForAllNode is a loop over [Lower, Upper) which iterations are independent.
	ForAllNode
	// DeltaNode is the Kronecker delta of two indices.
	DeltaNode
	// CallNode calls an intrinsic function.
	CallNode
	// CompoundNode is a sequence of expressions. Its value is the value of the last expression.
	CompoundNode
	// ConvertNode converts a value to another type.
	ConvertNode
	// ConstructNode builds a tuple, a structure or a tensor from its elements.
	ConstructNode
	// LocalDefNode defines a local variable with an initial value.
	LocalDefNode
	// IfNode is a conditional, with an optional else branch.
	IfNode
	// MacroNode is a call to a named macro expanded by the code generator.
	MacroNode
	// SpawnNode runs its body asynchronously.
	SpawnNode

	maxNodeKind
)

var nodeKindNames = [...]string{
	InvalidNode:   "invalid",
	LiteralNode:   "literal",
	VarRefNode:    "varref",
	IndexRefNode:  "indexref",
	BinaryNode:    "binary",
	UnaryNode:     "unary",
	SubscriptNode: "subscript",
	SumNode:       "sum",
	ForNode:       "for",
	ForAllNode:    "forall",
	DeltaNode:     "delta",
	CallNode:      "call",
	CompoundNode:  "compound",
	ConvertNode:   "convert",
	ConstructNode: "construct",
	LocalDefNode:  "localdef",
	IfNode:        "if",
	MacroNode:     "macro",
	SpawnNode:     "spawn",
}

// String returns the name of the kind.
func (k NodeKind) String() string {
	if int(k) >= len(nodeKindNames) {
		return fmt.Sprintf("NodeKind(%d)", k)
	}
	return nodeKindNames[k]
}

// AllNodeKinds returns all the valid node kinds.
func AllNodeKinds() []NodeKind {
	kinds := make([]NodeKind, 0, maxNodeKind-1)
	for k := InvalidNode + 1; k < maxNodeKind; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// IsLoop returns true if the kind is an explicit loop.
func (k NodeKind) IsLoop() bool {
	return k == ForNode || k == ForAllNode
}

// Intrinsic is the name of a function known by the compiler.
type Intrinsic string

// Intrinsic functions.
const (
	Exp      Intrinsic = "exp"
	Log      Intrinsic = "log"
	Sqrt     Intrinsic = "sqrt"
	Abs      Intrinsic = "abs"
	Min      Intrinsic = "min"
	Max      Intrinsic = "max"
	FloorDiv Intrinsic = "floordiv"
	Select   Intrinsic = "select"

	// LowerBound and UpperBound are placeholders for the bounds of an index.
	// They are replaced by the deduced bounds when loop bounds are deduced.
	LowerBound Intrinsic = "lower_bound"
	UpperBound Intrinsic = "upper_bound"
)

// Intent of a variable.
type Intent uint8

// Variable intents.
const (
	Generic Intent = iota
	In
	Out
	InOut
)

func (i Intent) String() string {
	switch i {
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	}
	return "generic"
}

// Writable returns true if the variable can be written.
func (i Intent) Writable() bool {
	return i != In
}

// Role of a variable declaration.
type Role uint8

// Variable roles.
const (
	// Local is a variable defined in a function body.
	Local Role = iota
	// Param is a function parameter.
	Param
	// Index is a concrete loop index.
	Index
	// AbstractIndex is a symbolic index only used as an algebraic placeholder.
	AbstractIndex
)

func (r Role) String() string {
	switch r {
	case Param:
		return "param"
	case Index:
		return "index"
	case AbstractIndex:
		return "abstract index"
	}
	return "local"
}

// IsIndex returns true for concrete and abstract indices.
func (r Role) IsIndex() bool {
	return r == Index || r == AbstractIndex
}

// IsAssign returns true if the operator is an assignment.
func IsAssign(op token.Token) bool {
	switch op {
	case token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.QUO_ASSIGN:
		return true
	}
	return false
}

// IsComparison returns true if the operator is a comparison or a logical operator.
func IsComparison(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ, token.LAND, token.LOR:
		return true
	}
	return false
}
