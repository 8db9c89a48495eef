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

// Package handle passes Go values through C code as integers.
//
// C libraries calling back into Go cannot hold Go pointers. Callbacks instead
// receive a Handle, which is converted back into the Go value by the Go side
// of the callback.
package handle

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/gx-org/tlc/base/sync"
)

// Handle to a Go value.
type Handle uintptr

var (
	handles   = sync.Map[Handle, any]{}
	handleIdx = atomic.Uintptr{}
)

// Wrap returns a new handle to a Go value.
// The zero value is mapped to the zero handle.
//
// Handles must be unwrapped with Unwrap using the same type T.
func Wrap[T comparable](v T) Handle {
	var zero T
	if v == zero {
		return 0
	}
	h := Handle(handleIdx.Add(1))
	if h == 0 {
		panic("handle: ran out of handle space")
	}
	handles.Store(h, v)
	return h
}

// Unwrap returns the value of a handle returned by Wrap.
// Panics if the handle has been released or if T is not the type used by Wrap.
func Unwrap[T any](h Handle) T {
	if h == 0 {
		var zero T
		return zero
	}
	v, ok := handles.Load(h)
	if !ok {
		panic(fmt.Sprintf("handle: unwrapping invalid handle %d", h))
	}
	return v.(T)
}

// Release deletes a handle.
//
// The handle must not be used (either through Unwrap or Release) after deletion.
func Release(h Handle) {
	if h == 0 {
		return
	}
	if _, ok := handles.LoadAndDelete(h); !ok {
		panic(fmt.Sprintf("handle: deleting invalid handle %d", h))
	}
}

// With wraps a value, calls f with the handle, and releases the handle when f returns.
func With[T comparable, R any](v T, f func(Handle) R) R {
	h := Wrap(v)
	defer Release(h)
	return f(h)
}

// Count returns the number of live handles.
func Count() int {
	return handles.Size()
}

// Dump returns a string representation of all the live handles.
func Dump() string {
	var lines []string
	for h, v := range handles.Iter() {
		lines = append(lines, fmt.Sprintf("%T handle: %d", v, h))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
