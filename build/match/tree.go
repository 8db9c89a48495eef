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

package match

// Tree is a value with ordered children.
type Tree[T any] interface {
	Children() []T
}

// attempt matches a single value and resets the matcher before returning.
// onMatch is called while the bindings are still set.
func attempt[V any](m Matcher[V], v V, onMatch func()) (matched, prune bool) {
	defer m.Reset()
	if !m.Match(v) {
		return false, false
	}
	if onMatch != nil {
		onMatch()
	}
	return true, m.prune()
}

// Match attempts to match a single value.
// On success, result is called with the value while the bindings of m are set.
func Match[V, R any](m Matcher[V], v V, result func(V) R) (r R, ok bool) {
	ok, _ = attempt(m, v, func() {
		if result != nil {
			r = result(v)
		}
	})
	return
}

// Matches returns true if m matches a single value.
func Matches[V any](m Matcher[V], v V) bool {
	ok, _ := attempt(m, v, nil)
	return ok
}

// ForEach visits every node of a tree in pre-order and calls f on the nodes
// matched by m. The subtrees of nodes matched by a protected matcher are skipped.
// Returns the number of matched nodes.
func ForEach[T Tree[T]](root T, m Matcher[T], f func(T)) int {
	count := 0
	var rec func(T)
	rec = func(node T) {
		matched, prune := attempt(m, node, func() {
			if f != nil {
				f(node)
			}
		})
		if matched {
			count++
		}
		if prune {
			return
		}
		for _, child := range node.Children() {
			rec(child)
		}
	}
	rec(root)
	return count
}

// Search returns the result computed on the first node matched by m in pre-order.
// result is called while the bindings of m are set.
// Search returns false if no node is matched.
func Search[T Tree[T], R any](root T, m Matcher[T], result func(T) R) (r R, ok bool) {
	var rec func(T) bool
	rec = func(node T) bool {
		matched, _ := attempt(m, node, func() {
			if result != nil {
				r = result(node)
			}
		})
		if matched {
			return true
		}
		for _, child := range node.Children() {
			if rec(child) {
				return true
			}
		}
		return false
	}
	ok = rec(root)
	return
}

// Fold accumulates a state over a tree in post-order.
// The state of a node is first computed by leaf, given whether m matches the node,
// then combined with the states of its children in order.
func Fold[T Tree[T], S any](root T, m Matcher[T], leaf func(node T, matched bool) S, combine func(parent, child S) S) S {
	var rec func(T) S
	rec = func(node T) S {
		children := node.Children()
		states := make([]S, len(children))
		for i, child := range children {
			states[i] = rec(child)
		}
		var state S
		matched, _ := attempt(m, node, func() {
			state = leaf(node, true)
		})
		if !matched {
			state = leaf(node, false)
		}
		for _, child := range states {
			state = combine(state, child)
		}
		return state
	}
	return rec(root)
}
