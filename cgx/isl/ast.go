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
)

// ParallelLoop is the annotation of the for nodes carrying no dependence
// given to DetectParallel.
const ParallelLoop = "parallel"

var (
	astBuildClass = class[C.isl_ast_build]{
		name: "ast build",
		copy: func(p *C.isl_ast_build) *C.isl_ast_build { return C.isl_ast_build_copy(p) },
		free: func(p *C.isl_ast_build) { C.isl_ast_build_free(p) },
	}
	astNodeClass = class[C.isl_ast_node]{
		name: "ast node",
		copy: func(p *C.isl_ast_node) *C.isl_ast_node { return C.isl_ast_node_copy(p) },
		free: func(p *C.isl_ast_node) { C.isl_ast_node_free(p) },
		str:  func(p *C.isl_ast_node) *C.char { return C.isl_ast_node_to_str(p) },
	}
	astExprClass = class[C.isl_ast_expr]{
		name: "ast expr",
		copy: func(p *C.isl_ast_expr) *C.isl_ast_expr { return C.isl_ast_expr_copy(p) },
		free: func(p *C.isl_ast_expr) { C.isl_ast_expr_free(p) },
		str:  func(p *C.isl_ast_expr) *C.char { return C.isl_ast_expr_to_str(p) },
	}
)

// ASTBuild generates abstract syntax trees from schedules.
type ASTBuild struct {
	object[C.isl_ast_build]
	deps *UnionMap
}

// ASTBuildFromContext returns a build generating code valid under the
// constraints on the parameters given by context.
func ASTBuildFromContext(context *Set) (*ASTBuild, error) {
	if err := checkAlive(context); err != nil {
		return nil, err
	}
	obj, err := newObject(context.ctx, &astBuildClass, "ast build from context", C.isl_ast_build_from_context(context.dup()))
	if err != nil {
		return nil, err
	}
	return &ASTBuild{object: obj}, nil
}

// DetectParallel annotates every for node generated by the build with
// ParallelLoop if the loop carries none of the dependences deps.
func (b *ASTBuild) DetectParallel(deps *UnionMap) error {
	if err := checkAlive(b, deps); err != nil {
		return err
	}
	if b.deps != nil {
		return fmterr.Internalf("isl: parallel loops are already detected by the build")
	}
	own, err := deps.Copy()
	if err != nil {
		return err
	}
	obj, err := newObject(b.ctx, &astBuildClass, "detect parallel loops", C.tlc_ast_build_detect_parallel(b.forget(), own.ptr))
	if err != nil {
		own.Free()
		return err
	}
	b.object = obj
	b.deps = own
	return nil
}

// Free the build and the dependences used to detect parallel loops.
func (b *ASTBuild) Free() {
	b.object.Free()
	if b.deps != nil {
		b.deps.Free()
		b.deps = nil
	}
}

// NodeFromSchedule generates the AST of a schedule.
func (b *ASTBuild) NodeFromSchedule(s *Schedule) (*ASTNode, error) {
	if err := checkAlive(b, s); err != nil {
		return nil, err
	}
	return newASTNode(b.ctx, "ast from schedule", C.isl_ast_build_node_from_schedule(b.ptr, s.dup()))
}

// ASTNodeType is the type of a node of an AST.
type ASTNodeType int

// Types of AST nodes.
const (
	ASTNodeError ASTNodeType = iota
	ASTNodeFor
	ASTNodeIf
	ASTNodeBlock
	ASTNodeMark
	ASTNodeUser
)

func (t ASTNodeType) String() string {
	switch t {
	case ASTNodeFor:
		return "for"
	case ASTNodeIf:
		return "if"
	case ASTNodeBlock:
		return "block"
	case ASTNodeMark:
		return "mark"
	case ASTNodeUser:
		return "user"
	}
	return "error"
}

// ASTNode is a node of an abstract syntax tree.
type ASTNode struct {
	object[C.isl_ast_node]
}

func newASTNode(ctx *Ctx, op string, ptr *C.isl_ast_node) (*ASTNode, error) {
	obj, err := newObject(ctx, &astNodeClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &ASTNode{obj}, nil
}

// Type returns the type of the node.
func (n *ASTNode) Type() ASTNodeType {
	if n.ptr == nil {
		return ASTNodeError
	}
	switch C.isl_ast_node_get_type(n.ptr) {
	case C.isl_ast_node_for:
		return ASTNodeFor
	case C.isl_ast_node_if:
		return ASTNodeIf
	case C.isl_ast_node_block:
		return ASTNodeBlock
	case C.isl_ast_node_mark:
		return ASTNodeMark
	case C.isl_ast_node_user:
		return ASTNodeUser
	}
	return ASTNodeError
}

func (n *ASTNode) checkType(want ASTNodeType) error {
	if err := checkAlive(n); err != nil {
		return err
	}
	if got := n.Type(); got != want {
		return fmterr.Internalf("isl: %s node used as a %s node", got, want)
	}
	return nil
}

func (n *ASTNode) expr(tp ASTNodeType, op string, f func(*C.isl_ast_node) *C.isl_ast_expr) (*ASTExpr, error) {
	if err := n.checkType(tp); err != nil {
		return nil, err
	}
	return newASTExpr(n.ctx, op, f(n.ptr))
}

func (n *ASTNode) node(tp ASTNodeType, op string, f func(*C.isl_ast_node) *C.isl_ast_node) (*ASTNode, error) {
	if err := n.checkType(tp); err != nil {
		return nil, err
	}
	return newASTNode(n.ctx, op, f(n.ptr))
}

// ForIterator returns the iterator of a for node.
func (n *ASTNode) ForIterator() (*ASTExpr, error) {
	return n.expr(ASTNodeFor, "for iterator", func(p *C.isl_ast_node) *C.isl_ast_expr {
		return C.isl_ast_node_for_get_iterator(p)
	})
}

// ForInit returns the initial value of the iterator of a for node.
func (n *ASTNode) ForInit() (*ASTExpr, error) {
	return n.expr(ASTNodeFor, "for init", func(p *C.isl_ast_node) *C.isl_ast_expr {
		return C.isl_ast_node_for_get_init(p)
	})
}

// ForCond returns the condition of a for node.
func (n *ASTNode) ForCond() (*ASTExpr, error) {
	return n.expr(ASTNodeFor, "for cond", func(p *C.isl_ast_node) *C.isl_ast_expr {
		return C.isl_ast_node_for_get_cond(p)
	})
}

// ForInc returns the increment of the iterator of a for node.
func (n *ASTNode) ForInc() (*ASTExpr, error) {
	return n.expr(ASTNodeFor, "for inc", func(p *C.isl_ast_node) *C.isl_ast_expr {
		return C.isl_ast_node_for_get_inc(p)
	})
}

// ForBody returns the body of a for node.
func (n *ASTNode) ForBody() (*ASTNode, error) {
	return n.node(ASTNodeFor, "for body", func(p *C.isl_ast_node) *C.isl_ast_node {
		return C.isl_ast_node_for_get_body(p)
	})
}

// ForIsDegenerate returns true if the body of a for node is executed
// exactly once, with the iterator equal to its initial value.
func (n *ASTNode) ForIsDegenerate() (bool, error) {
	if err := n.checkType(ASTNodeFor); err != nil {
		return false, err
	}
	return n.ctx.toBool("for is degenerate", C.isl_ast_node_for_is_degenerate(n.ptr))
}

// Annotation returns the name of the annotation of a node, or an empty
// string if the node has no annotation.
func (n *ASTNode) Annotation() string {
	if n.ptr == nil {
		return ""
	}
	id := C.isl_ast_node_get_annotation(n.ptr)
	if id == nil {
		return ""
	}
	defer C.isl_id_free(id)
	return C.GoString(C.isl_id_get_name(id))
}

// IfCond returns the condition of an if node.
func (n *ASTNode) IfCond() (*ASTExpr, error) {
	return n.expr(ASTNodeIf, "if cond", func(p *C.isl_ast_node) *C.isl_ast_expr {
		return C.isl_ast_node_if_get_cond(p)
	})
}

// IfThen returns the then branch of an if node.
func (n *ASTNode) IfThen() (*ASTNode, error) {
	return n.node(ASTNodeIf, "if then", func(p *C.isl_ast_node) *C.isl_ast_node {
		return C.isl_ast_node_if_get_then(p)
	})
}

// IfElse returns the else branch of an if node, or nil if the node has none.
func (n *ASTNode) IfElse() (*ASTNode, error) {
	if err := n.checkType(ASTNodeIf); err != nil {
		return nil, err
	}
	has, err := n.ctx.toBool("if has else", C.isl_ast_node_if_has_else(n.ptr))
	if err != nil || !has {
		return nil, err
	}
	return newASTNode(n.ctx, "if else", C.isl_ast_node_if_get_else(n.ptr))
}

// BlockChildren returns the statements of a block node.
func (n *ASTNode) BlockChildren() ([]*ASTNode, error) {
	if err := n.checkType(ASTNodeBlock); err != nil {
		return nil, err
	}
	list := C.isl_ast_node_block_get_children(n.ptr)
	if list == nil {
		return nil, n.ctx.lastError("block children")
	}
	defer C.isl_ast_node_list_free(list)
	num := int(C.isl_ast_node_list_n_ast_node(list))
	if num < 0 {
		return nil, n.ctx.lastError("block children")
	}
	children := make([]*ASTNode, num)
	for i := range children {
		child, err := newASTNode(n.ctx, "block child", C.isl_ast_node_list_get_ast_node(list, C.int(i)))
		if err != nil {
			for _, prev := range children[:i] {
				prev.Free()
			}
			return nil, err
		}
		children[i] = child
	}
	return children, nil
}

// MarkID returns the name of the mark of a mark node.
func (n *ASTNode) MarkID() (string, error) {
	if err := n.checkType(ASTNodeMark); err != nil {
		return "", err
	}
	id := C.isl_ast_node_mark_get_id(n.ptr)
	if id == nil {
		return "", n.ctx.lastError("mark id")
	}
	defer C.isl_id_free(id)
	return C.GoString(C.isl_id_get_name(id)), nil
}

// MarkNode returns the node marked by a mark node.
func (n *ASTNode) MarkNode() (*ASTNode, error) {
	return n.node(ASTNodeMark, "mark node", func(p *C.isl_ast_node) *C.isl_ast_node {
		return C.isl_ast_node_mark_get_node(p)
	})
}

// UserExpr returns the call expression of a user node.
func (n *ASTNode) UserExpr() (*ASTExpr, error) {
	return n.expr(ASTNodeUser, "user expr", func(p *C.isl_ast_node) *C.isl_ast_expr {
		return C.isl_ast_node_user_get_expr(p)
	})
}

// CString returns the node printed as C code.
func (n *ASTNode) CString() string {
	if n.ptr == nil {
		return ""
	}
	return goString(C.isl_ast_node_to_C_str(n.ptr))
}

// ASTExprType is the type of an AST expression.
type ASTExprType int

func (t ASTExprType) String() string {
	switch t {
	case ASTExprOp:
		return "op"
	case ASTExprID:
		return "id"
	case ASTExprInt:
		return "int"
	}
	return "error"
}

// Types of AST expressions.
const (
	ASTExprError ASTExprType = iota
	ASTExprOp
	ASTExprID
	ASTExprInt
)

// ASTOp is the operator of an operation expression.
type ASTOp int

// Operators of AST expressions.
const (
	OpError ASTOp = iota
	OpAnd
	OpAndThen
	OpOr
	OpOrElse
	OpMax
	OpMin
	OpMinus
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFDivQ
	OpPDivQ
	OpPDivR
	OpZDivR
	OpCond
	OpSelect
	OpEq
	OpLe
	OpLt
	OpGe
	OpGt
	OpCall
	OpAccess
	OpMember
	OpAddressOf
)

var opNames = [...]string{
	OpError:     "error",
	OpAnd:       "and",
	OpAndThen:   "and_then",
	OpOr:        "or",
	OpOrElse:    "or_else",
	OpMax:       "max",
	OpMin:       "min",
	OpMinus:     "minus",
	OpAdd:       "add",
	OpSub:       "sub",
	OpMul:       "mul",
	OpDiv:       "div",
	OpFDivQ:     "fdiv_q",
	OpPDivQ:     "pdiv_q",
	OpPDivR:     "pdiv_r",
	OpZDivR:     "zdiv_r",
	OpCond:      "cond",
	OpSelect:    "select",
	OpEq:        "eq",
	OpLe:        "le",
	OpLt:        "lt",
	OpGe:        "ge",
	OpGt:        "gt",
	OpCall:      "call",
	OpAccess:    "access",
	OpMember:    "member",
	OpAddressOf: "address_of",
}

func (op ASTOp) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("ASTOp(%d)", int(op))
	}
	return opNames[op]
}

var islOps = map[C.enum_isl_ast_expr_op_type]ASTOp{
	C.isl_ast_expr_op_and:        OpAnd,
	C.isl_ast_expr_op_and_then:   OpAndThen,
	C.isl_ast_expr_op_or:         OpOr,
	C.isl_ast_expr_op_or_else:    OpOrElse,
	C.isl_ast_expr_op_max:        OpMax,
	C.isl_ast_expr_op_min:        OpMin,
	C.isl_ast_expr_op_minus:      OpMinus,
	C.isl_ast_expr_op_add:        OpAdd,
	C.isl_ast_expr_op_sub:        OpSub,
	C.isl_ast_expr_op_mul:        OpMul,
	C.isl_ast_expr_op_div:        OpDiv,
	C.isl_ast_expr_op_fdiv_q:     OpFDivQ,
	C.isl_ast_expr_op_pdiv_q:     OpPDivQ,
	C.isl_ast_expr_op_pdiv_r:     OpPDivR,
	C.isl_ast_expr_op_zdiv_r:     OpZDivR,
	C.isl_ast_expr_op_cond:       OpCond,
	C.isl_ast_expr_op_select:     OpSelect,
	C.isl_ast_expr_op_eq:         OpEq,
	C.isl_ast_expr_op_le:         OpLe,
	C.isl_ast_expr_op_lt:         OpLt,
	C.isl_ast_expr_op_ge:         OpGe,
	C.isl_ast_expr_op_gt:         OpGt,
	C.isl_ast_expr_op_call:       OpCall,
	C.isl_ast_expr_op_access:     OpAccess,
	C.isl_ast_expr_op_member:     OpMember,
	C.isl_ast_expr_op_address_of: OpAddressOf,
}

// ASTExpr is an expression of an abstract syntax tree.
type ASTExpr struct {
	object[C.isl_ast_expr]
}

func newASTExpr(ctx *Ctx, op string, ptr *C.isl_ast_expr) (*ASTExpr, error) {
	obj, err := newObject(ctx, &astExprClass, op, ptr)
	if err != nil {
		return nil, err
	}
	return &ASTExpr{obj}, nil
}

// Type returns the type of the expression.
func (e *ASTExpr) Type() ASTExprType {
	if e.ptr == nil {
		return ASTExprError
	}
	switch C.isl_ast_expr_get_type(e.ptr) {
	case C.isl_ast_expr_op:
		return ASTExprOp
	case C.isl_ast_expr_id:
		return ASTExprID
	case C.isl_ast_expr_int:
		return ASTExprInt
	}
	return ASTExprError
}

func (e *ASTExpr) checkType(want ASTExprType) error {
	if err := checkAlive(e); err != nil {
		return err
	}
	if got := e.Type(); got != want {
		return fmterr.Internalf("isl: %s expression %s used as an %s expression", got, e.String(), want)
	}
	return nil
}

// Op returns the operator of an operation expression.
func (e *ASTExpr) Op() (ASTOp, error) {
	if err := e.checkType(ASTExprOp); err != nil {
		return OpError, err
	}
	op, ok := islOps[C.isl_ast_expr_op_get_type(e.ptr)]
	if !ok {
		return OpError, e.ctx.lastError("expression operator")
	}
	return op, nil
}

// NumArgs returns the number of arguments of an operation expression.
func (e *ASTExpr) NumArgs() (int, error) {
	if err := e.checkType(ASTExprOp); err != nil {
		return 0, err
	}
	num := int(C.isl_ast_expr_op_get_n_arg(e.ptr))
	if num < 0 {
		return 0, e.ctx.lastError("expression arguments")
	}
	return num, nil
}

// Arg returns the ith argument of an operation expression.
func (e *ASTExpr) Arg(i int) (*ASTExpr, error) {
	if err := e.checkType(ASTExprOp); err != nil {
		return nil, err
	}
	return newASTExpr(e.ctx, "expression argument", C.isl_ast_expr_op_get_arg(e.ptr, C.int(i)))
}

// Args returns all the arguments of an operation expression.
func (e *ASTExpr) Args() ([]*ASTExpr, error) {
	num, err := e.NumArgs()
	if err != nil {
		return nil, err
	}
	args := make([]*ASTExpr, num)
	for i := range args {
		if args[i], err = e.Arg(i); err != nil {
			for _, prev := range args[:i] {
				prev.Free()
			}
			return nil, err
		}
	}
	return args, nil
}

// ID returns the name of an identifier expression.
func (e *ASTExpr) ID() (string, error) {
	if err := e.checkType(ASTExprID); err != nil {
		return "", err
	}
	id := C.isl_ast_expr_get_id(e.ptr)
	if id == nil {
		return "", e.ctx.lastError("expression id")
	}
	defer C.isl_id_free(id)
	return C.GoString(C.isl_id_get_name(id)), nil
}

// Int returns the value of an integer expression.
func (e *ASTExpr) Int() (int64, error) {
	if err := e.checkType(ASTExprInt); err != nil {
		return 0, err
	}
	val, err := newVal(e.ctx, "expression value", C.isl_ast_expr_get_val(e.ptr))
	if err != nil {
		return 0, err
	}
	defer val.Free()
	v, ok := val.Int64()
	if !ok {
		return 0, fmterr.Internalf("isl: expression value %s is not an integer", val.String())
	}
	return v, nil
}
