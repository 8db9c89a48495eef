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

// Package annotations attaches compiler meta-data to IR nodes and variable declarations.
//
// Annotations never take part in the identity or the structural equality of
// what they annotate.
package annotations

import (
	"fmt"
	"strings"

	"github.com/gx-org/tlc/base/ordered"
	"github.com/pkg/errors"
)

type (
	// Key is an annotation key.
	// Singleton created by the package defining the annotation.
	Key interface {
		key()
		FullName() string
	}

	key struct {
		fullName string
	}
)

// NewKey returns an annotation key where the name is the type of the given argument.
func NewKey(a any) Key {
	return &key{
		fullName: fmt.Sprintf("%T", a),
	}
}

// NewNamedKey returns an annotation key with a given name.
func NewNamedKey(name string) Key {
	return &key{fullName: name}
}

func (key) key() {}

// FullName of the key.
func (k *key) FullName() string {
	return k.fullName
}

type (
	// Annotations maps key to annotation value.
	Annotations struct {
		anns *ordered.Map[Key, annotation]
	}

	annotation interface {
		Key() Key
		String() string
	}

	annotationT[T any] struct {
		key   Key
		value T
	}

	// Annotated owns a set of annotations.
	Annotated interface {
		ShortString() string
		Annotations() *Annotations
	}
)

func (anns *Annotations) set(ann annotation, overwrite bool) bool {
	if anns.anns == nil {
		anns.anns = ordered.NewMap[Key, annotation]()
	}
	_, has := anns.anns.Load(ann.Key())
	if has && !overwrite {
		return false
	}
	anns.anns.Store(ann.Key(), ann)
	return true
}

func (anns *Annotations) get(key Key) annotation {
	if anns == nil || anns.anns == nil {
		return nil
	}
	ann, _ := anns.anns.Load(key)
	return ann
}

// Len returns the number of annotations.
func (anns *Annotations) Len() int {
	if anns == nil || anns.anns == nil {
		return 0
	}
	return anns.anns.Size()
}

// Clone returns a shallow copy of the annotations.
func (anns *Annotations) Clone() *Annotations {
	if anns == nil || anns.anns == nil {
		return &Annotations{}
	}
	return &Annotations{anns: anns.anns.Clone()}
}

// String representation of the annotations.
func (anns *Annotations) String() string {
	if anns == nil || anns.anns == nil {
		return ""
	}
	var ss []string
	for k, v := range anns.anns.Iter() {
		ss = append(ss, fmt.Sprintf("%s: %s", k.FullName(), v.String()))
	}
	return strings.Join(ss, "\n")
}

func (a *annotationT[T]) Key() Key {
	return a.key
}

func (a *annotationT[T]) String() string {
	return fmt.Sprint(a.value)
}

// Set an annotation on an annotated receiver.
// Returns an error if the annotation has already been set.
func Set[T any](rcv Annotated, key Key, val T) error {
	ok := rcv.Annotations().set(&annotationT[T]{
		key:   key,
		value: val,
	}, false)
	if !ok {
		return errors.Errorf("annotation %s has already been defined on %s", key.FullName(), rcv.ShortString())
	}
	return nil
}

// Replace sets an annotation on an annotated receiver, overwriting any previous value.
func Replace[T any](rcv Annotated, key Key, val T) {
	rcv.Annotations().set(&annotationT[T]{
		key:   key,
		value: val,
	}, true)
}

// GetDef gets an annotation from an annotated receiver or create a new one if it is not already set.
func GetDef[T any](rcv Annotated, key Key, n func() T) T {
	if val, ok := Lookup[T](rcv, key); ok {
		return val
	}
	val := n()
	Replace(rcv, key, val)
	return val
}

// Lookup returns the annotation of a receiver and whether the annotation has been set.
// An annotation set with a different value type is reported as absent.
func Lookup[T any](rcv Annotated, key Key) (t T, ok bool) {
	ann := rcv.Annotations().get(key)
	if ann == nil {
		return
	}
	annT, ok := ann.(*annotationT[T])
	if !ok {
		return
	}
	return annT.value, true
}

// Get gets an annotation from an annotated receiver.
// Returns a zero value if the annotation has not been defined.
func Get[T any](rcv Annotated, key Key) T {
	t, _ := Lookup[T](rcv, key)
	return t
}

// Has returns true if the receiver has an annotation for the key.
func Has(rcv Annotated, key Key) bool {
	return rcv.Annotations().get(key) != nil
}
