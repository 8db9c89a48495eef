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
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type errorWithStackTrace struct {
	err error
}

// malformedErrors returns all the malformed IR errors in the tree of an error,
// from the left to the right.
func malformedErrors(err error) []*MalformedError {
	var errs []*MalformedError
	for err != nil {
		if all := multierr.Errors(err); len(all) > 1 {
			for _, sub := range all {
				errs = append(errs, malformedErrors(sub)...)
			}
			break
		}
		if malformed, ok := err.(*MalformedError); ok {
			errs = append(errs, malformed)
		}
		err = errors.Unwrap(err)
	}
	return errs
}

// formatVerbose writes the error message followed by the offending IR
// expressions and by the stack trace of the innermost error carrying one.
func formatVerbose(err error, s fmt.State) {
	io.WriteString(s, err.Error())
	if malformed := malformedErrors(err); len(malformed) > 0 {
		io.WriteString(s, "\nOffending expressions:")
		for _, m := range malformed {
			node := "<unknown>"
			if m.Node != nil {
				node = m.Node.String()
			}
			fmt.Fprintf(s, "\n\t%s\n\t\t%s", node, strings.ReplaceAll(m.err.Error(), "\n", "\n\t\t"))
		}
	}
	var withSt interface {
		StackTrace() errors.StackTrace
	}
	if !errors.As(err, &withSt) {
		return
	}
	fmt.Fprintf(s, "\nError generated at:%+v\n", withSt.StackTrace())
}

func format(err error, s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			formatVerbose(err, s)
			return
		}
		io.WriteString(s, err.Error())
	case 's':
		io.WriteString(s, err.Error())
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	}
}

// ToStackTraceError returns an error which verbose formatting (%+v) lists the
// offending expressions of malformed IR errors and the stack trace where the
// error was generated.
func ToStackTraceError(err error) error {
	if err == nil {
		return nil
	}
	return errorWithStackTrace{err: err}
}

func (err errorWithStackTrace) Unwrap() error {
	return err.err
}

func (err errorWithStackTrace) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

func (err errorWithStackTrace) Error() string {
	return err.err.Error()
}
