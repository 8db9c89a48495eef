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

package fmt_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	tlcfmt "github.com/gx-org/tlc/base/fmt"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		txt  string
		want string
	}{
		{txt: "", want: ""},
		{
			txt:  "for (c0 = 0; c0 < n; c0 += 1)\n  S0(c0);\n",
			want: "1 for (c0 = 0; c0 < n; c0 += 1)\n2   S0(c0);\n",
		},
		{
			txt:  "a\nb\nc\nd\ne\nf\ng\nh\ni\nj",
			want: "01 a\n02 b\n03 c\n04 d\n05 e\n06 f\n07 g\n08 h\n09 i\n10 j",
		},
	}
	for _, test := range tests {
		if diff := cmp.Diff(test.want, tlcfmt.Number(test.txt)); diff != "" {
			t.Errorf("unexpected numbering of %q (-want +got):\n%s", test.txt, diff)
		}
	}
}

func TestIndent(t *testing.T) {
	got := tlcfmt.Indent("S0(c0);\nS1(c0);\n")
	if want := "\tS0(c0);\n\tS1(c0);\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
