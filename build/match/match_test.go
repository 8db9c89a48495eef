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

package match_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tlc/build/match"
)

type tree struct {
	label string
	kids  []*tree
}

func (t *tree) Children() []*tree { return t.kids }

func leaf(label string) *tree { return &tree{label: label} }

func node(label string, kids ...*tree) *tree { return &tree{label: label, kids: kids} }

func label(l string) match.Matcher[*tree] {
	return match.If(func(t *tree) bool { return t.label == l })
}

func labelOf(t *tree) (string, bool) { return t.label, true }

func kids(t *tree) ([]*tree, bool) { return t.kids, true }

// sample returns:
//
//	a
//	├── b
//	│   ├── c
//	│   └── x
//	└── x
//	    └── c
func sample() *tree {
	return node("a",
		node("b", leaf("c"), leaf("x")),
		node("x", leaf("c")),
	)
}

func labels(ts []*tree) []string {
	var ls []string
	for _, t := range ts {
		ls = append(ls, t.label)
	}
	return ls
}

func TestBinderSameValue(t *testing.T) {
	x := match.Var[string]()
	m := match.Seq(x, match.Lit("+"), x)
	tests := []struct {
		in   []string
		want bool
	}{
		{in: []string{"i", "+", "i"}, want: true},
		{in: []string{"i", "+", "j"}, want: false},
		{in: []string{"j", "+", "j"}, want: true},
		{in: []string{"j", "-", "j"}, want: false},
		{in: []string{"j", "+"}, want: false},
	}
	for _, test := range tests {
		got := match.Matches(m, test.in)
		if got != test.want {
			t.Errorf("match %v: got %v, want %v", test.in, got, test.want)
		}
		if x.Bound() {
			t.Errorf("match %v: binder still bound to %q after the attempt", test.in, x.Value())
		}
	}
}

func TestResetRestoresState(t *testing.T) {
	x, y := match.Var[string](), match.Var[string]()
	matchers := []match.Matcher[[]string]{
		match.Seq(x, y),
		match.Seq(x, x),
		match.Or(match.Seq(x, match.Lit("1")), match.Seq(y, match.Any[string]())),
		match.Protect(match.Seq(match.Any[string](), y)),
		match.And(match.Seq(x, y), match.Seq(y, x)),
	}
	values := [][]string{{"1", "1"}, {"1", "2"}, {"1"}, {}}
	for i, m := range matchers {
		for _, v := range values {
			match.Match(m, v, func([]string) bool {
				if !x.Bound() && !y.Bound() {
					t.Errorf("matcher %d on %v: no binding during the match", i, v)
				}
				return true
			})
			if x.Bound() || y.Bound() {
				t.Errorf("matcher %d on %v: bindings leaked after the attempt", i, v)
			}
		}
	}
}

func TestOrDiscardsFailedBindings(t *testing.T) {
	x := match.Var[string]()
	m := match.Or(
		match.Seq(x, match.Lit("1")),
		match.Seq(match.Any[string](), x),
	)
	got, ok := match.Match(m, []string{"5", "2"}, func([]string) string {
		return x.Value()
	})
	if !ok {
		t.Fatalf("no match")
	}
	if got != "2" {
		t.Errorf("got binding %q, want %q", got, "2")
	}
}

func TestSearchOrder(t *testing.T) {
	root := sample()
	var parent string
	got, ok := match.Search(root, match.And(
		match.Project(kids, match.Seq(label("c"), match.Any[*tree]())),
		match.Project(labelOf, match.AnyBind(&parent)),
	), func(t *tree) string { return t.label })
	if !ok {
		t.Fatalf("no match")
	}
	if got != "b" || parent != "b" {
		t.Errorf("got %q (bound %q), want %q", got, parent, "b")
	}
	// First pre-order match of x is the child of b.
	var found *tree
	_, ok = match.Search(root, label("x"), func(t *tree) *tree {
		found = t
		return t
	})
	if !ok {
		t.Fatalf("no match")
	}
	if diff := cmp.Diff([]string(nil), labels(found.kids)); diff != "" {
		t.Errorf("first x is not the leaf under b (-want +got):\n%s", diff)
	}
	if _, ok := match.Search(root, label("z"), func(*tree) int { return 0 }); ok {
		t.Errorf("search for a missing label succeeded")
	}
}

func TestForEach(t *testing.T) {
	root := sample()
	var visited []string
	n := match.ForEach(root, match.Any[*tree](), func(t *tree) {
		visited = append(visited, t.label)
	})
	want := []string{"a", "b", "c", "x", "x", "c"}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("unexpected visit order (-want +got):\n%s", diff)
	}
	if n != len(want) {
		t.Errorf("got %d matches, want %d", n, len(want))
	}
	// Protected matches skip their subtree.
	var cs int
	n = match.ForEach(root, match.Or(match.Protect(label("b")), label("c")), func(t *tree) {
		if t.label == "c" {
			cs++
		}
	})
	if n != 2 || cs != 1 {
		t.Errorf("got %d matches and %d c nodes, want 2 and 1", n, cs)
	}
}

func TestFold(t *testing.T) {
	root := sample()
	count := func(_ *tree, matched bool) int {
		if matched {
			return 1
		}
		return 0
	}
	sum := func(parent, child int) int { return parent + child }
	if got := match.Fold(root, label("c"), count, sum); got != 2 {
		t.Errorf("got %d c nodes, want 2", got)
	}
	var order []string
	match.Fold(root, match.Any[*tree](), func(t *tree, _ bool) int {
		order = append(order, t.label)
		return 0
	}, sum)
	want := []string{"c", "x", "b", "c", "x", "a"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("unexpected post-order (-want +got):\n%s", diff)
	}
}
