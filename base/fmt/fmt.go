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

// Package fmt formats multi-line strings for logs and error messages.
package fmt

import (
	"fmt"
	"math"
	"strings"
)

// Number adds a line number prefix to all lines in a string.
func Number(x string) string {
	if x == "" {
		return ""
	}
	numDigits := int(math.Log10(float64(strings.Count(x, "\n")+1))) + 1
	fmtString := fmt.Sprintf("%%0%dd %%s", numDigits)
	var s strings.Builder
	i := 0
	for line := range strings.Lines(x) {
		i++
		s.WriteString(fmt.Sprintf(fmtString, i, line))
	}
	return s.String()
}

// Indent all the lines of a string by a tabulation.
func Indent(x string) string {
	var y strings.Builder
	for line := range strings.Lines(x) {
		y.WriteString("\t")
		y.WriteString(line)
	}
	return y.String()
}
