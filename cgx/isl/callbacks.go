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

package isl

// #include "helpers.h"
import "C"

import "github.com/gx-org/tlc/cgx/handle"

//export tlcVisitPoint
func tlcVisitPoint(pnt *C.isl_point, user C.uintptr_t) C.int {
	defer C.isl_point_free(pnt)
	visitor := handle.Unwrap[*pointVisitor](handle.Handle(user))
	if err := visitor.f(toPoint(pnt)); err != nil {
		visitor.err = err
		return -1
	}
	return 0
}
