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

// Package scope provides nested scopes mapping keys to values.
package scope

import (
	"fmt"
	"strings"

	"github.com/gx-org/tlc/base/ordered"
	"github.com/pkg/errors"
)

// RWScope stores key,value pairs.
// A value can be retrieved from its key by querying the scope and,
// if not found, its parents recursively.
type RWScope[K comparable, V any] struct {
	parent *RWScope[K, V]
	data   *ordered.Map[K, V]
}

// NewScope returns a new scope given a parent, which can be nil.
func NewScope[K comparable, V any](parent *RWScope[K, V]) *RWScope[K, V] {
	return &RWScope[K, V]{
		parent: parent,
		data:   ordered.NewMap[K, V](),
	}
}

// NewChild returns a new scope which parent is the receiver.
func (s *RWScope[K, V]) NewChild() *RWScope[K, V] {
	return NewScope(s)
}

// Define maps key to value in the local scope, overwriting if necessary.
func (s *RWScope[K, V]) Define(k K, v V) {
	s.data.Store(k, v)
}

// IsLocal returns true if the key is defined in the local scope.
func (s *RWScope[K, V]) IsLocal(key K) bool {
	_, ok := s.data.Load(key)
	return ok
}

// Find a key in the scope and its parents.
func (s *RWScope[K, V]) Find(key K) (value V, ok bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if value, ok = scope.data.Load(key); ok {
			return
		}
	}
	return
}

// Assign maps an existing key to value, failing if the key is not defined.
// The assignment starts at the innermost scope and cascades upwards through
// successive parent scopes.
func (s *RWScope[K, V]) Assign(key K, value V) error {
	for scope := s; scope != nil; scope = scope.parent {
		if scope.IsLocal(key) {
			scope.Define(key, value)
			return nil
		}
	}
	return errors.Errorf("cannot assign %v: not defined in scope", key)
}

// String representation of the scope.
func (s *RWScope[K, V]) String() string {
	var levels []string
	for scope := s; scope != nil; scope = scope.parent {
		var kvs []string
		for k, v := range scope.data.Iter() {
			kvs = append(kvs, fmt.Sprintf("%v: %v", k, v))
		}
		levels = append(levels, strings.Join(kvs, "\n"))
	}
	return strings.Join(levels, "\n--\n")
}
