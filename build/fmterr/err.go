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

package fmterr

import (
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
)

type (
	// MalformedError is returned when a pass encounters a node shape it cannot lower.
	// The error is fatal to the compilation of the enclosing function.
	MalformedError struct {
		// Node is the offending subexpression.
		Node fmt.Stringer
		err  error
	}

	internalError struct {
		err error
	}
)

// ErrInfeasibleSchedule is returned when the scheduler cannot satisfy the validity constraints.
// It signals a bug in dependence extraction and must never be downgraded to a warning.
var ErrInfeasibleSchedule = errors.New("no schedule satisfies the validity constraints")

// Malformed attaches an offending IR node to an error.
func Malformed(node fmt.Stringer, err error) *MalformedError {
	return &MalformedError{Node: node, err: err}
}

// Malformedf returns a formatted malformed-IR error.
func Malformedf(node fmt.Stringer, format string, a ...any) *MalformedError {
	return Malformed(node, errors.Errorf(format, a...))
}

// Error returns a string description of the error.
func (err *MalformedError) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %T:\n%v", err.err, string(debug.Stack()))
	}()
	if err.Node == nil {
		return "malformed IR: " + err.err.Error()
	}
	return fmt.Sprintf("malformed IR in %s: %s", err.Node.String(), err.err.Error())
}

// Unwrap the error.
func (err *MalformedError) Unwrap() error {
	return err.err
}

// Format writes the error into the state of the formatter.
func (err *MalformedError) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

// Internal marks an error as internal, that is a bug in the compiler or in its use
// of a foreign library.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	return internalError{err: err}
}

// Internalf returns a formatted internal error.
func Internalf(format string, a ...any) error {
	return Internal(errors.Errorf(format, a...))
}

// IsInternal returns true if err (or one of the errors it wraps) is an internal error.
func IsInternal(err error) bool {
	var target internalError
	return errors.As(err, &target)
}

func (err internalError) Error() string {
	return "internal compiler error. This is a bug. Error:\n" + err.err.Error()
}

func (err internalError) Unwrap() error {
	return err.err
}

func (err internalError) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}
