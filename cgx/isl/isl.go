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

// Package isl wraps the isl integer set library.
//
// Every object wraps exactly one isl pointer and belongs to a context.
// Objects are not garbage collected: they must be freed with Free, or their
// pointer released with Release, before their context is freed.
// Methods never consume their receiver nor their arguments: isl functions
// taking ownership of a pointer are given a copy.
//
// isl errors are returned as internal errors carrying the last isl message.
package isl

/*
#cgo LDFLAGS: -lisl
#include "helpers.h"
*/
import "C"

import (
	"regexp"
	"sync/atomic"
	"unsafe"

	"github.com/gx-org/tlc/build/fmterr"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// MinVersion is the oldest version of isl supported by the package.
const MinVersion = "v0.22"

var (
	liveObjects atomic.Int64

	versionRE = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)
)

// LiveObjects returns the number of contexts and objects not freed yet.
func LiveObjects() int64 {
	return liveObjects.Load()
}

// Version returns the version string of the isl library.
func Version() string {
	return C.GoString(C.isl_version())
}

// SemVer returns the semantic version of a version string, such as
// "isl-0.25-GMP".
func SemVer(version string) (string, bool) {
	m := versionRE.FindStringSubmatch(version)
	if m == nil {
		return "", false
	}
	v := "v" + m[1] + "." + m[2]
	if m[3] != "" {
		v += "." + m[3]
	}
	return v, semver.IsValid(v)
}

func checkVersion(version string) error {
	v, ok := SemVer(version)
	if !ok {
		return errors.Errorf("cannot parse isl version %q", version)
	}
	if semver.Compare(v, MinVersion) < 0 {
		return errors.Errorf("isl version %s is not supported: version %s or later required", v, MinVersion)
	}
	return nil
}

// Ctx owns the memory of isl objects.
type Ctx struct {
	ptr  *C.isl_ctx
	live int
}

// NewCtx returns a new isl context.
func NewCtx() (*Ctx, error) {
	if err := checkVersion(Version()); err != nil {
		return nil, err
	}
	ptr := C.isl_ctx_alloc()
	if ptr == nil {
		return nil, fmterr.Internalf("isl: cannot allocate a context")
	}
	if C.tlc_configure(ptr) < 0 {
		C.isl_ctx_free(ptr)
		return nil, fmterr.Internalf("isl: cannot configure a context")
	}
	liveObjects.Add(1)
	return &Ctx{ptr: ptr}, nil
}

// Free the context.
// Returns an error, and does not free anything, if objects of the context are still alive.
func (c *Ctx) Free() error {
	if c.ptr == nil {
		return nil
	}
	if c.live > 0 {
		return fmterr.Internalf("isl: cannot free a context with %d live objects", c.live)
	}
	C.isl_ctx_free(c.ptr)
	c.ptr = nil
	liveObjects.Add(-1)
	return nil
}

// Live returns the number of objects of the context not freed yet.
func (c *Ctx) Live() int {
	return c.live
}

// ScheduleOptions are the options of the isl scheduler.
type ScheduleOptions struct {
	// OuterCoincidence requires the outermost band members to be coincident.
	OuterCoincidence bool
	// SerializeSCCs prevents the fusion of strongly connected components.
	SerializeSCCs bool
	// MaximizeBandDepth maximizes the number of members of bands.
	MaximizeBandDepth bool
}

func boolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// SetScheduleOptions sets the options used by ComputeSchedule.
func (c *Ctx) SetScheduleOptions(opts ScheduleOptions) error {
	if C.isl_options_set_schedule_outer_coincidence(c.ptr, boolInt(opts.OuterCoincidence)) < 0 ||
		C.isl_options_set_schedule_serialize_sccs(c.ptr, boolInt(opts.SerializeSCCs)) < 0 ||
		C.isl_options_set_schedule_maximize_band_depth(c.ptr, boolInt(opts.MaximizeBandDepth)) < 0 {
		return c.lastError("set schedule options")
	}
	return nil
}

// lastError returns the last error of the context and resets it.
func (c *Ctx) lastError(op string) error {
	msg := "unknown error"
	if cmsg := C.isl_ctx_last_error_msg(c.ptr); cmsg != nil {
		msg = C.GoString(cmsg)
	}
	C.isl_ctx_reset_error(c.ptr)
	return fmterr.Internal(errors.Errorf("isl: %s: %s", op, msg))
}

func (c *Ctx) toBool(op string, b C.isl_bool) (bool, error) {
	if b < 0 {
		return false, c.lastError(op)
	}
	return b != 0, nil
}

func goString(cs *C.char) string {
	if cs == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(cs))
	return C.GoString(cs)
}

// class gives access to the generic functions of an isl type.
type class[T any] struct {
	name string
	copy func(*T) *T
	free func(*T)
	str  func(*T) *C.char
}

// object owns a pointer to an isl object.
type object[T any] struct {
	cls *class[T]
	ctx *Ctx
	ptr *T
}

type liveObject interface {
	check() error
}

func newObject[T any](ctx *Ctx, cls *class[T], op string, ptr *T) (object[T], error) {
	if ptr == nil {
		return object[T]{}, ctx.lastError(op)
	}
	ctx.live++
	liveObjects.Add(1)
	return object[T]{cls: cls, ctx: ctx, ptr: ptr}, nil
}

func (o *object[T]) check() error {
	if o == nil || o.ptr == nil {
		return fmterr.Internalf("isl: use of a freed or released object")
	}
	return nil
}

func checkAlive(objs ...liveObject) error {
	for _, obj := range objs {
		if err := obj.check(); err != nil {
			return err
		}
	}
	return nil
}

// dup returns a copy of the pointer for isl functions taking ownership of their arguments.
func (o *object[T]) dup() *T {
	return o.cls.copy(o.ptr)
}

func (o *object[T]) forget() *T {
	ptr := o.ptr
	o.ptr = nil
	o.ctx.live--
	liveObjects.Add(-1)
	return ptr
}

// Ctx returns the context owning the object.
func (o *object[T]) Ctx() *Ctx {
	return o.ctx
}

// IsNil returns true if the object has been freed or released.
func (o *object[T]) IsNil() bool {
	return o.ptr == nil
}

// Free the object. Freeing a freed or released object does nothing.
func (o *object[T]) Free() {
	if o.ptr == nil {
		return
	}
	o.cls.free(o.forget())
}

// Release transfers the ownership of the isl pointer to the caller.
// The object is nil after release.
func (o *object[T]) Release() unsafe.Pointer {
	if o.ptr == nil {
		return nil
	}
	return unsafe.Pointer(o.forget())
}

func (o *object[T]) String() string {
	if o.cls == nil {
		return "<nil>"
	}
	if o.ptr == nil {
		return "<nil " + o.cls.name + ">"
	}
	if o.cls.str == nil {
		return o.cls.name
	}
	return goString(o.cls.str(o.ptr))
}

// freeAll frees a list of objects.
func freeAll(objs ...interface{ Free() }) {
	for _, obj := range objs {
		obj.Free()
	}
}
