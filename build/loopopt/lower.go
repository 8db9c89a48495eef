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

package loopopt

import (
	"go/token"

	tlcfmt "github.com/gx-org/tlc/base/fmt"
	"github.com/gx-org/tlc/base/uname"
	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/lower"
	"github.com/gx-org/tlc/cgx/isl"
)

// Lower generates the loops of the schedule and returns the function with
// its new body. Loops carrying no dependence are ForAll loops.
func (j *Job) Lower() (*ir.FuncDecl, error) {
	if err := j.checkState("Lower", ScheduleReady, Tiled); err != nil {
		return nil, err
	}
	build, err := isl.ASTBuildFromContext(j.context)
	if err != nil {
		return nil, err
	}
	defer build.Free()
	if err := build.DetectParallel(j.validity); err != nil {
		return nil, err
	}
	node, err := build.NodeFromSchedule(j.schedule)
	if err != nil {
		return nil, err
	}
	defer node.Free()
	j.debugf("loops:\n%s", tlcfmt.Indent(tlcfmt.Number(node.CString())))
	tr := &translator{
		job:   j,
		arena: j.fn.Arena(),
		names: reservedNames(j.fn),
		iters: make(map[string]ir.VarID),
	}
	body, err := tr.node(node)
	if err != nil {
		return nil, err
	}
	j.state = Lowered
	return j.fn.WithBody(body), nil
}

func reservedNames(fn *ir.FuncDecl) *uname.Unique {
	names := uname.New()
	a := fn.Arena()
	for _, id := range fn.Params {
		if decl, err := a.Var(id); err == nil {
			names.Reserve(decl.Name)
		}
	}
	for e := range ir.Walk(fn.Body) {
		switch e.Kind() {
		case ir.VarRefNode, ir.IndexRefNode, ir.SumNode, ir.ForNode, ir.ForAllNode, ir.LocalDefNode:
			if decl, err := a.Var(e.Var()); err == nil {
				names.Reserve(decl.Name)
			}
		}
	}
	return names
}

// translator translates an isl AST into IR.
type translator struct {
	job   *Job
	arena *ir.Arena
	names *uname.Unique
	// iters maps the iterators of the AST to the new loop indices.
	iters map[string]ir.VarID
}

func (tr *translator) node(node *isl.ASTNode) (ir.Expr, error) {
	switch node.Type() {
	case isl.ASTNodeFor:
		return tr.loop(node)
	case isl.ASTNodeIf:
		return tr.cond(node)
	case isl.ASTNodeBlock:
		return tr.block(node)
	case isl.ASTNodeMark:
		marked, err := node.MarkNode()
		if err != nil {
			return ir.Expr{}, err
		}
		defer marked.Free()
		return tr.node(marked)
	case isl.ASTNodeUser:
		return tr.user(node)
	}
	return ir.Expr{}, fmterr.Internalf("loopopt: cannot translate AST node %s", node)
}

func (tr *translator) block(node *isl.ASTNode) (ir.Expr, error) {
	children, err := node.BlockChildren()
	if err != nil {
		return ir.Expr{}, err
	}
	defer func() {
		for _, child := range children {
			child.Free()
		}
	}()
	stmts := make([]ir.Expr, len(children))
	for i, child := range children {
		if stmts[i], err = tr.node(child); err != nil {
			return ir.Expr{}, err
		}
	}
	return tr.arena.Compound(stmts...), nil
}

func (tr *translator) cond(node *isl.ASTNode) (ir.Expr, error) {
	condExpr, err := node.IfCond()
	if err != nil {
		return ir.Expr{}, err
	}
	defer condExpr.Free()
	cond, err := tr.expr(condExpr)
	if err != nil {
		return ir.Expr{}, err
	}
	thenNode, err := node.IfThen()
	if err != nil {
		return ir.Expr{}, err
	}
	defer thenNode.Free()
	then, err := tr.node(thenNode)
	if err != nil {
		return ir.Expr{}, err
	}
	elseNode, err := node.IfElse()
	if err != nil {
		return ir.Expr{}, err
	}
	if elseNode == nil {
		return tr.arena.If(cond, then, ir.Expr{}), nil
	}
	defer elseNode.Free()
	els, err := tr.node(elseNode)
	if err != nil {
		return ir.Expr{}, err
	}
	return tr.arena.If(cond, then, els), nil
}

// addConst returns x+c, folding constants.
func (tr *translator) addConst(x ir.Expr, c int64) ir.Expr {
	if v, ok := x.Int(); ok {
		return tr.arena.Index(v + c)
	}
	return tr.arena.Add(x, tr.arena.Index(c))
}

func (tr *translator) loop(node *isl.ASTNode) (ir.Expr, error) {
	iterExpr, err := node.ForIterator()
	if err != nil {
		return ir.Expr{}, err
	}
	defer iterExpr.Free()
	iterName, err := iterExpr.ID()
	if err != nil {
		return ir.Expr{}, err
	}
	initExpr, err := node.ForInit()
	if err != nil {
		return ir.Expr{}, err
	}
	defer initExpr.Free()
	init, err := tr.expr(initExpr)
	if err != nil {
		return ir.Expr{}, err
	}
	incExpr, err := node.ForInc()
	if err != nil {
		return ir.Expr{}, err
	}
	defer incExpr.Free()
	if inc, err := incExpr.Int(); err != nil || inc != 1 {
		return ir.Expr{}, fmterr.Internalf("loopopt: unsupported loop increment %s", incExpr)
	}
	var upper ir.Expr
	degenerate, err := node.ForIsDegenerate()
	if err != nil {
		return ir.Expr{}, err
	}
	if degenerate {
		upper = tr.addConst(init, 1)
	} else if upper, err = tr.upperBound(node, iterName); err != nil {
		return ir.Expr{}, err
	}

	index := tr.arena.NewIndex(tr.names.Name(iterName))
	prev, shadowed := tr.iters[iterName]
	tr.iters[iterName] = index.ID
	defer func() {
		if shadowed {
			tr.iters[iterName] = prev
		} else {
			delete(tr.iters, iterName)
		}
	}()
	bodyNode, err := node.ForBody()
	if err != nil {
		return ir.Expr{}, err
	}
	defer bodyNode.Free()
	body, err := tr.node(bodyNode)
	if err != nil {
		return ir.Expr{}, err
	}
	kind := ir.ForNode
	if node.Annotation() == isl.ParallelLoop {
		kind = ir.ForAllNode
	}
	return tr.arena.Loop(kind, index.ID, init, upper, body), nil
}

// upperBound returns the exclusive upper bound of a loop given its condition.
func (tr *translator) upperBound(node *isl.ASTNode, iter string) (ir.Expr, error) {
	condExpr, err := node.ForCond()
	if err != nil {
		return ir.Expr{}, err
	}
	defer condExpr.Free()
	op, err := condExpr.Op()
	if err != nil {
		return ir.Expr{}, err
	}
	args, err := condExpr.Args()
	if err != nil {
		return ir.Expr{}, err
	}
	defer func() {
		for _, arg := range args {
			arg.Free()
		}
	}()
	if len(args) != 2 {
		return ir.Expr{}, fmterr.Internalf("loopopt: unsupported loop condition %s", condExpr)
	}
	isIter := func(e *isl.ASTExpr) bool {
		if e.Type() != isl.ASTExprID {
			return false
		}
		name, err := e.ID()
		return err == nil && name == iter
	}
	var bound *isl.ASTExpr
	var inclusive bool
	switch {
	case (op == isl.OpLe || op == isl.OpLt) && isIter(args[0]):
		bound, inclusive = args[1], op == isl.OpLe
	case (op == isl.OpGe || op == isl.OpGt) && isIter(args[1]):
		bound, inclusive = args[0], op == isl.OpGe
	default:
		return ir.Expr{}, fmterr.Internalf("loopopt: unsupported loop condition %s", condExpr)
	}
	upper, err := tr.expr(bound)
	if err != nil {
		return ir.Expr{}, err
	}
	if inclusive {
		upper = tr.addConst(upper, 1)
	}
	return upper, nil
}

// user instantiates a statement.
func (tr *translator) user(node *isl.ASTNode) (ir.Expr, error) {
	call, err := node.UserExpr()
	if err != nil {
		return ir.Expr{}, err
	}
	defer call.Free()
	args, err := call.Args()
	if err != nil {
		return ir.Expr{}, err
	}
	defer func() {
		for _, arg := range args {
			arg.Free()
		}
	}()
	if len(args) == 0 {
		return ir.Expr{}, fmterr.Internalf("loopopt: statement call %s without a statement", call)
	}
	name, err := args[0].ID()
	if err != nil {
		return ir.Expr{}, err
	}
	st, ok := tr.job.stmts.Load(name)
	if !ok {
		return ir.Expr{}, fmterr.Internalf("loopopt: unknown statement %s", name)
	}
	if len(args)-1 != len(st.iters) {
		return ir.Expr{}, fmterr.Internalf("loopopt: statement %s called with %d iterators, want %d", name, len(args)-1, len(st.iters))
	}
	body := st.body
	for i, iter := range st.iters {
		value, err := tr.expr(args[i+1])
		if err != nil {
			return ir.Expr{}, err
		}
		body = ir.SubstituteVar(body, iter, value)
	}
	return body, nil
}

var (
	binaryOps = map[isl.ASTOp]token.Token{
		isl.OpAdd:     token.ADD,
		isl.OpSub:     token.SUB,
		isl.OpMul:     token.MUL,
		isl.OpDiv:     token.QUO,
		isl.OpPDivQ:   token.QUO,
		isl.OpPDivR:   token.REM,
		isl.OpZDivR:   token.REM,
		isl.OpAnd:     token.LAND,
		isl.OpAndThen: token.LAND,
		isl.OpOr:      token.LOR,
		isl.OpOrElse:  token.LOR,
		isl.OpEq:      token.EQL,
		isl.OpLe:      token.LEQ,
		isl.OpLt:      token.LSS,
		isl.OpGe:      token.GEQ,
		isl.OpGt:      token.GTR,
	}
	callOps = map[isl.ASTOp]ir.Intrinsic{
		isl.OpMin:    ir.Min,
		isl.OpMax:    ir.Max,
		isl.OpFDivQ:  ir.FloorDiv,
		isl.OpCond:   ir.Select,
		isl.OpSelect: ir.Select,
	}
)

// expr translates an AST expression into an index expression.
func (tr *translator) expr(e *isl.ASTExpr) (ir.Expr, error) {
	switch e.Type() {
	case isl.ASTExprInt:
		v, err := e.Int()
		if err != nil {
			return ir.Expr{}, err
		}
		return tr.arena.Index(v), nil
	case isl.ASTExprID:
		name, err := e.ID()
		if err != nil {
			return ir.Expr{}, err
		}
		if id, ok := tr.iters[name]; ok {
			return tr.arena.Ref(id), nil
		}
		if id, ok := tr.job.params[name]; ok {
			return lower.Bound{Param: id}.Expr(tr.arena), nil
		}
		return ir.Expr{}, fmterr.Internalf("loopopt: unknown identifier %s in AST", name)
	case isl.ASTExprOp:
		return tr.op(e)
	}
	return ir.Expr{}, fmterr.Internalf("loopopt: cannot translate AST expression %s", e)
}

func (tr *translator) op(e *isl.ASTExpr) (ir.Expr, error) {
	op, err := e.Op()
	if err != nil {
		return ir.Expr{}, err
	}
	argExprs, err := e.Args()
	if err != nil {
		return ir.Expr{}, err
	}
	defer func() {
		for _, arg := range argExprs {
			arg.Free()
		}
	}()
	args := make([]ir.Expr, len(argExprs))
	for i, arg := range argExprs {
		if args[i], err = tr.expr(arg); err != nil {
			return ir.Expr{}, err
		}
	}
	a := tr.arena
	switch {
	case op == isl.OpMinus && len(args) == 1:
		return a.Unary(token.SUB, args[0]), nil
	case op == isl.OpMin || op == isl.OpMax:
		if len(args) == 0 {
			break
		}
		// Min and max take any number of arguments in isl.
		r := args[0]
		for _, arg := range args[1:] {
			r = a.Call(callOps[op], r, arg)
		}
		return r, nil
	case len(args) == 2:
		if tok, ok := binaryOps[op]; ok {
			return a.Binary(tok, args[0], args[1]), nil
		}
		if fn, ok := callOps[op]; ok {
			return a.Call(fn, args...), nil
		}
	case len(args) == 3:
		if fn, ok := callOps[op]; ok && fn == ir.Select {
			return a.Call(fn, args...), nil
		}
	}
	return ir.Expr{}, fmterr.Internalf("loopopt: cannot translate AST operation %s", e)
}
