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
	"strings"

	"go.uber.org/multierr"
)

// Errors accumulates independent errors, for instance one per index
// when deducing loop bounds.
type Errors struct {
	err error
}

// Append an error to the set. Nil errors are ignored.
// Always returns false so that callers can write `return errs.Append(err)`.
func (errs *Errors) Append(err error) bool {
	errs.err = multierr.Append(errs.err, err)
	return false
}

// Appendf appends a malformed-IR error.
func (errs *Errors) Appendf(node fmt.Stringer, format string, a ...any) bool {
	return errs.Append(Malformedf(node, format, a...))
}

// Empty returns true if no error has been appended.
func (errs *Errors) Empty() bool {
	return errs == nil || errs.err == nil
}

// Errors returns the list of all collected errors.
func (errs *Errors) Errors() []error {
	if errs == nil {
		return nil
	}
	return multierr.Errors(errs.err)
}

// ToError returns the errors as an error interface, or nil if there is no error.
func (errs *Errors) ToError() error {
	if errs.Empty() {
		return nil
	}
	return errs.err
}

// String representation of the errors.
func (errs *Errors) String() string {
	var ss []string
	for _, err := range errs.Errors() {
		ss = append(ss, err.Error())
	}
	return strings.Join(ss, "\n")
}
