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
	"fmt"
	"go/token"
	"slices"
	"sort"
	"strings"

	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/cgx/isl"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

type (
	// statement is a leaf of the loop nest of a function.
	statement struct {
		name  string
		body  ir.Expr
		iters []ir.VarID
		// constraints of the iteration domain, one per loop bound.
		constraints []string
		// dates of the statement in the original schedule, outermost first.
		dates []date
		// reduction is true if the statement accumulates into its target.
		reduction bool
		accesses  []access
		// locals are the variables defined inside the statement.
		locals *set.Set[ir.VarID]
	}

	// date is a dimension of the original schedule:
	// either the position of a statement in a sequence or a loop iterator.
	date struct {
		pos  int
		iter int
	}

	// access of a statement to an array.
	access struct {
		array string
		rank  int
		// subs are the subscripts of the array, or an empty string if a
		// subscript is not affine.
		subs  []string
		write bool
		may   bool
	}
)

func (st *statement) tuple() string {
	names := make([]string, len(st.iters))
	for i := range names {
		names[i] = iterName(i)
	}
	return fmt.Sprintf("%s[%s]", st.name, strings.Join(names, ", "))
}

func iterName(i int) string {
	return fmt.Sprintf("i%d", i)
}

func where(constraints []string) string {
	if len(constraints) == 0 {
		return ""
	}
	return " : " + strings.Join(constraints, " and ")
}

func (st *statement) domain() string {
	return st.tuple() + where(st.constraints)
}

func (st *statement) relation(acc access) string {
	outs := make([]string, acc.rank)
	constraints := slices.Clone(st.constraints)
	for i := range outs {
		outs[i] = fmt.Sprintf("o%d", i)
		if i < len(acc.subs) && acc.subs[i] != "" {
			constraints = append(constraints, fmt.Sprintf("%s = %s", outs[i], acc.subs[i]))
		}
	}
	return fmt.Sprintf("%s -> %s[%s]%s", st.tuple(), acc.array, strings.Join(outs, ", "), where(constraints))
}

func (st *statement) scheduleMap(width int) string {
	dims := make([]string, width)
	for i := range dims {
		dims[i] = "0"
		if i >= len(st.dates) {
			continue
		}
		if d := st.dates[i]; d.iter >= 0 {
			dims[i] = iterName(d.iter)
		} else {
			dims[i] = fmt.Sprint(d.pos)
		}
	}
	return fmt.Sprintf("%s -> [%s]", st.tuple(), strings.Join(dims, ", "))
}

// selfDependences returns the relation between all the instances of the statement.
func (st *statement) selfDependences() string {
	outs := make([]string, len(st.iters))
	for i := range outs {
		outs[i] = fmt.Sprintf("o%d", i)
	}
	return fmt.Sprintf("%s -> %s[%s]", st.tuple(), st.name, strings.Join(outs, ", "))
}

func unsupported(node ir.Expr, format string, a ...any) error {
	return errors.Wrapf(ErrUnsupported, "%s in %s", fmt.Sprintf(format, a...), node)
}

// param returns the isl name of an integer parameter.
func (j *Job) param(decl *ir.VarDecl) string {
	if name, ok := j.paramNames[decl.ID]; ok {
		return name
	}
	name := j.names.Name("P_" + decl.Name)
	j.paramNames[decl.ID] = name
	j.params[name] = decl.ID
	return name
}

// array returns the isl name of an array.
func (j *Job) array(decl *ir.VarDecl) string {
	if name, ok := j.arrays[decl.ID]; ok {
		return name
	}
	name := j.names.Name("mem_" + decl.Name)
	j.arrays[decl.ID] = name
	return name
}

// union returns a union set or a union map in the isl syntax.
func (j *Job) union(parts []string) string {
	return fmt.Sprintf("%s{ %s }", j.paramSpace(), strings.Join(parts, "; "))
}

func (j *Job) paramSpace() string {
	if len(j.params) == 0 {
		return ""
	}
	names := maps.Keys(j.params)
	sort.Strings(names)
	return "[" + strings.Join(names, ", ") + "] -> "
}

func (j *Job) contextString() string {
	names := maps.Keys(j.params)
	sort.Strings(names)
	constraints := make([]string, len(names))
	for i, name := range names {
		constraints[i] = name + " >= 0"
	}
	return fmt.Sprintf("%s{ :%s }", j.paramSpace(), strings.TrimPrefix(where(constraints), " :"))
}

// collect adds the leaves of a loop nest to the statements of the job.
func (j *Job) collect(e ir.Expr, loops []ir.Expr, dates []date) error {
	switch e.Kind() {
	case ir.CompoundNode:
		for i, child := range e.Children() {
			if err := j.collect(child, loops, append(slices.Clone(dates), date{pos: i, iter: -1})); err != nil {
				return err
			}
		}
		return nil
	case ir.ForNode, ir.ForAllNode:
		next := append(slices.Clone(dates), date{iter: len(loops)})
		return j.collect(e.Body(), append(slices.Clone(loops), e), next)
	}
	return j.addStatement(e, loops, dates)
}

func checkStatement(e ir.Expr) error {
	switch e.Kind() {
	case ir.LocalDefNode:
		return unsupported(e, "local variable defined between statements")
	case ir.MacroNode:
		return unsupported(e, "macro statement")
	}
	if !ir.IsStatement(e.Type()) {
		return unsupported(e, "statement of type %s", e.Type())
	}
	for sub := range ir.Walk(e) {
		switch sub.Kind() {
		case ir.SumNode, ir.DeltaNode:
			return unsupported(e, "%s not lowered", sub.Kind())
		case ir.SpawnNode:
			return unsupported(e, "asynchronous statement")
		case ir.CallNode:
			if fn := sub.Intrinsic(); fn == ir.LowerBound || fn == ir.UpperBound {
				return unsupported(e, "loop bounds not deduced")
			}
		}
	}
	return nil
}

func (j *Job) addStatement(e ir.Expr, loops []ir.Expr, dates []date) error {
	if err := checkStatement(e); err != nil {
		return err
	}
	st := &statement{
		name:   fmt.Sprintf("S%d", j.stmts.Size()),
		body:   e,
		dates:  dates,
		locals: set.New[ir.VarID](0),
	}
	env := affineEnv{job: j, iters: make(map[ir.VarID]string)}
	for i, loop := range loops {
		iter := iterName(i)
		lower, lowerOk := env.affine(loop.Lower())
		upper, upperOk := env.affine(loop.Upper())
		if !lowerOk || !upperOk {
			return unsupported(loop, "loop bounds are not affine")
		}
		st.iters = append(st.iters, loop.Var())
		env.iters[loop.Var()] = iter
		st.constraints = append(st.constraints, fmt.Sprintf("%s <= %s < %s", lower, iter, upper))
	}
	if e.Kind() == ir.BinaryNode && ir.IsAssign(e.Op()) && e.Op() != token.ASSIGN {
		st.reduction = true
	}
	if err := st.visit(env, e, false); err != nil {
		return err
	}
	j.stmts.Store(st.name, st)
	return nil
}

// visit collects the accesses of the statement in e.
// Writes are may writes if they are not executed by every instance of the statement.
func (st *statement) visit(env affineEnv, e ir.Expr, may bool) error {
	switch e.Kind() {
	case ir.BinaryNode:
		if !ir.IsAssign(e.Op()) {
			break
		}
		target := e.X()
		if err := st.addAccess(env, target, true, may); err != nil {
			return err
		}
		if e.Op() != token.ASSIGN {
			if err := st.addAccess(env, target, false, may); err != nil {
				return err
			}
		}
		if err := st.visitSubscripts(env, target); err != nil {
			return err
		}
		return st.visit(env, e.Y(), may)
	case ir.SubscriptNode, ir.VarRefNode:
		if err := st.addAccess(env, e, false, may); err != nil {
			return err
		}
		return st.visitSubscripts(env, e)
	case ir.LocalDefNode:
		st.locals.Insert(e.Var())
	case ir.IfNode:
		if err := st.visit(env, e.Child(0), may); err != nil {
			return err
		}
		for _, branch := range e.Children()[1:] {
			if err := st.visit(env, branch, true); err != nil {
				return err
			}
		}
		return nil
	case ir.ForNode, ir.ForAllNode:
		// Inner loops may execute zero times.
		for _, child := range e.Children() {
			if err := st.visit(env, child, true); err != nil {
				return err
			}
		}
		return nil
	}
	for _, child := range e.Children() {
		if err := st.visit(env, child, may); err != nil {
			return err
		}
	}
	return nil
}

// visitSubscripts visits the subscripts of an access, not the accessed variable.
func (st *statement) visitSubscripts(env affineEnv, e ir.Expr) error {
	for e.Kind() == ir.SubscriptNode {
		if err := st.visit(env, e.Y(), false); err != nil {
			return err
		}
		e = e.X()
	}
	if e.Kind() == ir.VarRefNode {
		return nil
	}
	return st.visit(env, e, false)
}

func subscripts(e ir.Expr) (ir.Expr, []ir.Expr) {
	var subs []ir.Expr
	for e.Kind() == ir.SubscriptNode {
		index := e.Y()
		if index.Kind() == ir.ConstructNode {
			subs = append(index.Children(), subs...)
		} else {
			subs = append([]ir.Expr{index}, subs...)
		}
		e = e.X()
	}
	return e, subs
}

func (st *statement) addAccess(env affineEnv, e ir.Expr, write, may bool) error {
	base, subs := subscripts(e)
	if base.Kind() != ir.VarRefNode {
		if write {
			return unsupported(e, "assignment to a value which is not a variable")
		}
		return nil
	}
	decl := base.Decl()
	if st.locals.Contains(decl.ID) {
		return nil
	}
	if !write && len(subs) == 0 && integerParam(base) {
		return nil
	}
	rank := 0
	if tensor, ok := decl.Type.(*ir.TensorType); ok {
		rank = tensor.Rank()
	}
	if len(subs) > rank {
		return unsupported(e, "%d subscripts for an array of rank %d", len(subs), rank)
	}
	acc := access{
		array: env.job.array(decl),
		rank:  rank,
		subs:  make([]string, len(subs)),
		write: write,
		may:   may || len(subs) < rank,
	}
	for i, sub := range subs {
		s, ok := env.affine(sub)
		if !ok {
			acc.may = true
			continue
		}
		acc.subs[i] = s
	}
	st.accesses = append(st.accesses, acc)
	return nil
}

// Extract builds the iteration domains, the accesses and the dependences of
// the statements of the function.
// Returns an error wrapping ErrUnsupported if the function cannot be
// represented in the polyhedral model.
func (j *Job) Extract() error {
	if err := j.checkState("Extract", Raw); err != nil {
		return err
	}
	if j.fn.Result != nil && !ir.IsStatement(j.fn.Result) {
		return unsupported(j.fn.Body, "function returning %s", j.fn.Result)
	}
	if err := j.collect(j.fn.Body, nil, nil); err != nil {
		return err
	}
	if j.stmts.Size() == 0 {
		return errors.Wrapf(ErrUnsupported, "no statement in %s", j.fn.Name)
	}
	if err := j.buildConstraints(); err != nil {
		return err
	}
	j.state = ConstraintsBuilt
	j.debugf("%d statements: domain %s: dependences %s", j.stmts.Size(), j.domain, j.validity)
	return nil
}

type accessMaps struct {
	reads, writes, mustWrites, mayWrites []string
	schedule, reductions                 []string
}

func (j *Job) accessMaps() accessMaps {
	written := set.New[string](0)
	width := 0
	for st := range j.stmts.Values() {
		width = max(width, len(st.dates))
		for _, acc := range st.accesses {
			if acc.write {
				written.Insert(acc.array)
			}
		}
	}
	var m accessMaps
	for st := range j.stmts.Values() {
		m.schedule = append(m.schedule, st.scheduleMap(width))
		if st.reduction {
			m.reductions = append(m.reductions, st.selfDependences())
		}
		for _, acc := range st.accesses {
			// Arrays which are never written do not create dependences.
			if !written.Contains(acc.array) {
				continue
			}
			rel := st.relation(acc)
			switch {
			case !acc.write:
				m.reads = append(m.reads, rel)
			case acc.may:
				m.writes = append(m.writes, rel)
				m.mayWrites = append(m.mayWrites, rel)
			default:
				m.writes = append(m.writes, rel)
				m.mustWrites = append(m.mustWrites, rel)
			}
		}
	}
	return m
}

func (j *Job) buildConstraints() (err error) {
	var domains []string
	for st := range j.stmts.Values() {
		domains = append(domains, st.domain())
	}
	if j.domain, err = isl.ReadUnionSet(j.ctx, j.union(domains)); err != nil {
		return err
	}
	if j.context, err = isl.ReadSet(j.ctx, j.contextString()); err != nil {
		return err
	}
	m := j.accessMaps()
	var objs []interface{ Free() }
	defer func() {
		for _, obj := range objs {
			obj.Free()
		}
	}()
	read := func(parts []string) *isl.UnionMap {
		if err != nil {
			return nil
		}
		var um *isl.UnionMap
		um, err = isl.ReadUnionMap(j.ctx, j.union(parts))
		if err == nil {
			objs = append(objs, um)
		}
		return um
	}
	schedule := read(m.schedule)
	reads := read(m.reads)
	writes := read(m.writes)
	mustWrites := read(m.mustWrites)
	mayWrites := read(m.mayWrites)
	reductions := read(m.reductions)
	if err != nil {
		return err
	}
	flows := []struct {
		sink, must, may *isl.UnionMap
	}{
		// Read after write.
		{sink: reads, must: mustWrites, may: mayWrites},
		// Write after write.
		{sink: writes, must: mustWrites, may: mayWrites},
		// Write after read.
		{sink: writes, may: reads},
	}
	if j.validity, err = isl.EmptyUnionMap(j.ctx); err != nil {
		return err
	}
	for _, f := range flows {
		deps, err := dependences(f.sink, f.must, f.may, schedule)
		if err != nil {
			return err
		}
		if err := j.unionValidity(deps); err != nil {
			return err
		}
	}
	coalesced, err := j.validity.Coalesce()
	if err != nil {
		return err
	}
	j.validity.Free()
	j.validity = coalesced
	j.coincidence, err = j.validity.Subtract(reductions)
	return err
}

func (j *Job) unionValidity(deps *isl.UnionMap) error {
	defer deps.Free()
	all, err := j.validity.Union(deps)
	if err != nil {
		return err
	}
	j.validity.Free()
	j.validity = all
	return nil
}

// dependences returns the dependences between the sources and the sink given
// the original schedule.
func dependences(sink, must, may, schedule *isl.UnionMap) (*isl.UnionMap, error) {
	info, err := isl.NewUnionAccessInfo(sink)
	if err != nil {
		return nil, err
	}
	defer info.Free()
	if must != nil {
		if err := info.SetMustSource(must); err != nil {
			return nil, err
		}
	}
	if may != nil {
		if err := info.SetMaySource(may); err != nil {
			return nil, err
		}
	}
	if err := info.SetScheduleMap(schedule); err != nil {
		return nil, err
	}
	flow, err := info.ComputeFlow()
	if err != nil {
		return nil, err
	}
	defer flow.Free()
	mustDeps, err := flow.MustDependence()
	if err != nil {
		return nil, err
	}
	defer mustDeps.Free()
	mayDeps, err := flow.MayDependence()
	if err != nil {
		return nil, err
	}
	defer mayDeps.Free()
	return mustDeps.Union(mayDeps)
}
