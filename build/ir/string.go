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
	"strconv"
	"strings"
)

func (a *Arena) varName(id VarID) string {
	decl, err := a.Var(id)
	if err != nil {
		return id.String()
	}
	return decl.Name
}

func literalString(val any) string {
	switch v := val.(type) {
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	}
	return fmt.Sprint(val)
}

func (e Expr) writeList(b *strings.Builder, exprs []Expr, sep string) {
	for i, x := range exprs {
		if i > 0 {
			b.WriteString(sep)
		}
		x.write(b)
	}
}

func (e Expr) write(b *strings.Builder) {
	if e.IsNil() {
		b.WriteString("<nil>")
		return
	}
	n := e.node()
	switch n.kind {
	case LiteralNode:
		b.WriteString(literalString(n.val))
	case VarRefNode, IndexRefNode:
		b.WriteString(e.arena.varName(n.vr))
	case BinaryNode:
		if IsAssign(n.op) {
			n.children[0].write(b)
			fmt.Fprintf(b, " %s ", n.op)
			n.children[1].write(b)
			return
		}
		b.WriteString("(")
		n.children[0].write(b)
		fmt.Fprintf(b, " %s ", n.op)
		n.children[1].write(b)
		b.WriteString(")")
	case UnaryNode:
		b.WriteString(n.op.String())
		n.children[0].write(b)
	case SubscriptNode:
		n.children[0].write(b)
		b.WriteString("[")
		n.children[1].write(b)
		b.WriteString("]")
	case SumNode:
		fmt.Fprintf(b, "sum_%s(", e.arena.varName(n.vr))
		n.children[0].write(b)
		b.WriteString(")")
	case ForNode, ForAllNode:
		fmt.Fprintf(b, "%s %s in [", n.kind, e.arena.varName(n.vr))
		n.children[0].write(b)
		b.WriteString(", ")
		n.children[1].write(b)
		b.WriteString(") { ")
		n.children[2].write(b)
		b.WriteString(" }")
	case DeltaNode:
		b.WriteString("delta(")
		e.writeList(b, n.children, ", ")
		b.WriteString(")")
	case CallNode:
		b.WriteString(n.name)
		b.WriteString("(")
		e.writeList(b, n.children, ", ")
		b.WriteString(")")
	case CompoundNode:
		b.WriteString("{ ")
		e.writeList(b, n.children, "; ")
		b.WriteString(" }")
	case ConvertNode:
		b.WriteString(n.aux.String())
		b.WriteString("(")
		n.children[0].write(b)
		b.WriteString(")")
	case ConstructNode:
		if _, isTuple := n.aux.(*TupleType); !isTuple {
			b.WriteString(n.aux.String())
		}
		b.WriteString("(")
		e.writeList(b, n.children, ", ")
		b.WriteString(")")
	case LocalDefNode:
		fmt.Fprintf(b, "%s := ", e.arena.varName(n.vr))
		n.children[0].write(b)
	case IfNode:
		b.WriteString("if ")
		n.children[0].write(b)
		b.WriteString(" { ")
		n.children[1].write(b)
		b.WriteString(" }")
		if len(n.children) == 3 {
			b.WriteString(" else { ")
			n.children[2].write(b)
			b.WriteString(" }")
		}
	case MacroNode:
		fmt.Fprintf(b, "@%s(", n.name)
		e.writeList(b, n.children, ", ")
		b.WriteString(")")
	case SpawnNode:
		b.WriteString("spawn { ")
		n.children[0].write(b)
		b.WriteString(" }")
	default:
		fmt.Fprintf(b, "<%s>", n.kind)
	}
}

// String representation of the expression, for debugging.
func (e Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

// ShortString returns the kind of the node and its position in the arena.
func (e Expr) ShortString() string {
	return fmt.Sprintf("%s@%d", e.Kind(), e.idx)
}
