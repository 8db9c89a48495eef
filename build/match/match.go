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

// Package match provides composable matchers to test and destructure values,
// and whole-tree algorithms built on top of them.
//
// A matcher is stateful: binders capture the values they match during one
// top-level attempt. All the functions of this package reset the matcher
// they are given once the attempt is over, whether it succeeded or not.
// Matchers must not be shared between goroutines.
package match

type (
	// Matcher tests if a value has a given structure.
	Matcher[V any] interface {
		// Match returns true if the value is matched.
		Match(V) bool
		// Reset clears all the bindings captured by the matcher.
		Reset()

		// prune returns true if the last successful match requires
		// tree traversals to skip the subtree of the matched value.
		prune() bool
		// snapshot saves the bindings of the matcher and returns a function to restore them.
		snapshot() func()
	}

	anyM[V any] struct {
		dst *V
	}

	litM[V comparable] struct {
		val V
	}

	predM[V any] struct {
		pred func(V) bool
	}

	// Binder captures the first value it matches.
	// Later matches during the same attempt only succeed if the value is equal
	// to the captured one.
	Binder[V comparable] struct {
		val   V
		bound bool
	}

	orM[V any] struct {
		left, right Matcher[V]
		last        Matcher[V]
	}

	protectM[V any] struct {
		m Matcher[V]
	}

	seqM[V any] struct {
		ms []Matcher[V]
	}

	andM[V any] struct {
		ms []Matcher[V]
	}

	projectM[V, W any] struct {
		get func(V) (W, bool)
		m   Matcher[W]
	}
)

func noop() {}

// Any returns a wildcard matching any value.
func Any[V any]() Matcher[V] {
	return &anyM[V]{}
}

// AnyBind returns a wildcard matching any value and storing it in dst.
// dst keeps the last matched value after the matcher is reset.
func AnyBind[V any](dst *V) Matcher[V] {
	return &anyM[V]{dst: dst}
}

func (m *anyM[V]) Match(v V) bool {
	if m.dst != nil {
		*m.dst = v
	}
	return true
}

func (m *anyM[V]) Reset()           {}
func (m *anyM[V]) prune() bool      { return false }
func (m *anyM[V]) snapshot() func() { return noop }

// Lit returns a matcher matching values equal to a literal.
func Lit[V comparable](val V) Matcher[V] {
	return &litM[V]{val: val}
}

func (m *litM[V]) Match(v V) bool   { return v == m.val }
func (m *litM[V]) Reset()           {}
func (m *litM[V]) prune() bool      { return false }
func (m *litM[V]) snapshot() func() { return noop }

// If returns a matcher matching values for which a predicate is true.
func If[V any](pred func(V) bool) Matcher[V] {
	return &predM[V]{pred: pred}
}

func (m *predM[V]) Match(v V) bool   { return m.pred(v) }
func (m *predM[V]) Reset()           {}
func (m *predM[V]) prune() bool      { return false }
func (m *predM[V]) snapshot() func() { return noop }

// Var returns a new binder.
func Var[V comparable]() *Binder[V] {
	return &Binder[V]{}
}

// Match captures the value if the binder is empty. Otherwise, it returns true
// if the value is equal to the captured value.
func (b *Binder[V]) Match(v V) bool {
	if !b.bound {
		b.val, b.bound = v, true
		return true
	}
	return b.val == v
}

// Reset clears the captured value.
func (b *Binder[V]) Reset() {
	var zero V
	b.val, b.bound = zero, false
}

// Value returns the captured value.
func (b *Binder[V]) Value() V {
	return b.val
}

// Bound returns true if the binder has captured a value.
func (b *Binder[V]) Bound() bool {
	return b.bound
}

func (b *Binder[V]) prune() bool { return false }

func (b *Binder[V]) snapshot() func() {
	val, bound := b.val, b.bound
	return func() {
		b.val, b.bound = val, bound
	}
}

// Or returns a matcher trying left first, then right.
// The bindings captured by left are discarded when left fails.
func Or[V any](left, right Matcher[V]) Matcher[V] {
	return &orM[V]{left: left, right: right}
}

func (m *orM[V]) Match(v V) bool {
	m.last = nil
	restore := m.left.snapshot()
	if m.left.Match(v) {
		m.last = m.left
		return true
	}
	restore()
	if m.right.Match(v) {
		m.last = m.right
		return true
	}
	return false
}

func (m *orM[V]) Reset() {
	m.last = nil
	m.left.Reset()
	m.right.Reset()
}

func (m *orM[V]) prune() bool {
	return m.last != nil && m.last.prune()
}

func (m *orM[V]) snapshot() func() {
	last := m.last
	l, r := m.left.snapshot(), m.right.snapshot()
	return func() {
		m.last = last
		l()
		r()
	}
}

// Protect returns a matcher matching the same values as m.
// Tree traversals do not visit the subtree of a value matched by a protected matcher.
func Protect[V any](m Matcher[V]) Matcher[V] {
	return &protectM[V]{m: m}
}

func (m *protectM[V]) Match(v V) bool   { return m.m.Match(v) }
func (m *protectM[V]) Reset()           { m.m.Reset() }
func (m *protectM[V]) prune() bool      { return true }
func (m *protectM[V]) snapshot() func() { return m.m.snapshot() }

func snapshotAll[V any](ms []Matcher[V]) func() {
	restores := make([]func(), len(ms))
	for i, m := range ms {
		restores[i] = m.snapshot()
	}
	return func() {
		for _, restore := range restores {
			restore()
		}
	}
}

func resetAll[V any](ms []Matcher[V]) {
	for _, m := range ms {
		m.Reset()
	}
}

func pruneAny[V any](ms []Matcher[V]) bool {
	for _, m := range ms {
		if m.prune() {
			return true
		}
	}
	return false
}

// Seq returns a matcher matching a slice of a fixed length,
// element by element.
func Seq[V any](ms ...Matcher[V]) Matcher[[]V] {
	return &seqM[V]{ms: ms}
}

func (m *seqM[V]) Match(vs []V) bool {
	if len(vs) != len(m.ms) {
		return false
	}
	for i, v := range vs {
		if !m.ms[i].Match(v) {
			return false
		}
	}
	return true
}

func (m *seqM[V]) Reset()           { resetAll(m.ms) }
func (m *seqM[V]) prune() bool      { return pruneAny(m.ms) }
func (m *seqM[V]) snapshot() func() { return snapshotAll(m.ms) }

// And returns a matcher matching values matched by all the matchers, in order.
func And[V any](ms ...Matcher[V]) Matcher[V] {
	return &andM[V]{ms: ms}
}

func (m *andM[V]) Match(v V) bool {
	for _, mi := range m.ms {
		if !mi.Match(v) {
			return false
		}
	}
	return true
}

func (m *andM[V]) Reset()           { resetAll(m.ms) }
func (m *andM[V]) prune() bool      { return pruneAny(m.ms) }
func (m *andM[V]) snapshot() func() { return snapshotAll(m.ms) }

// Project returns a matcher applying m to a part of a value.
// The match fails if get returns false.
func Project[V, W any](get func(V) (W, bool), m Matcher[W]) Matcher[V] {
	return &projectM[V, W]{get: get, m: m}
}

func (m *projectM[V, W]) Match(v V) bool {
	w, ok := m.get(v)
	if !ok {
		return false
	}
	return m.m.Match(w)
}

func (m *projectM[V, W]) Reset()           { m.m.Reset() }
func (m *projectM[V, W]) prune() bool      { return m.m.prune() }
func (m *projectM[V, W]) snapshot() func() { return m.m.snapshot() }
