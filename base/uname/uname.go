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

// Package uname provides unique names.
//
// Names are also used as identifiers in isl strings, so every name
// returned by Unique is a valid C identifier.
package uname

import (
	"fmt"
	"strings"
	"unicode"
)

// Unique generates unique names.
type Unique struct {
	names map[string]int
	taken map[string]bool
}

// New name generator.
func New() *Unique {
	return &Unique{
		names: make(map[string]int),
		taken: make(map[string]bool),
	}
}

// Sanitize replaces all characters that cannot appear in an identifier by an underscore.
func Sanitize(root string) string {
	if root == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range root {
		ok := r == '_' || unicode.IsLetter(r) && r < unicode.MaxASCII
		if i > 0 {
			ok = ok || unicode.IsDigit(r) && r < unicode.MaxASCII
		}
		if !ok {
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Reserve marks a name as used without returning it.
func (n *Unique) Reserve(name string) {
	n.taken[name] = true
}

// Name returns a unique name given a desired base name.
// If the base name is available, it is returned directly. Else, a unique suffix is appended.
func (n *Unique) Name(root string) string {
	root = Sanitize(root)
	for {
		nextIndex, ok := n.names[root]
		var name string
		if !ok {
			n.names[root] = 1
			name = root
		} else {
			name = fmt.Sprintf("%s%d", root, nextIndex)
			n.names[root] = nextIndex + 1
		}
		if n.taken[name] {
			continue
		}
		n.taken[name] = true
		return name
	}
}
