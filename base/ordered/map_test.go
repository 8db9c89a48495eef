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

package ordered_test

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tlc/base/ordered"
)

type entry struct {
	K string
	V int
}

func collect(m *ordered.Map[string, int]) []entry {
	var got []entry
	for k, v := range m.Iter() {
		got = append(got, entry{K: k, V: v})
	}
	return got
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		deletes []string
		want    []entry
	}{
		{
			entries: []entry{{"a", 1}, {"b", 2}, {"c", 3}},
			want:    []entry{{"a", 1}, {"b", 2}, {"c", 3}},
		},
		{
			entries: []entry{{"a", 1}, {"b", 2}, {"a", 3}},
			want:    []entry{{"a", 3}, {"b", 2}},
		},
		{
			entries: []entry{{"a", 1}, {"b", 2}, {"c", 3}},
			deletes: []string{"b", "z"},
			want:    []entry{{"a", 1}, {"c", 3}},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, e := range test.entries {
			m.Store(e.K, e.V)
		}
		for _, k := range test.deletes {
			m.Delete(k)
		}
		m = m.Clone()
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", ti, m.Size(), len(test.want))
			continue
		}
		if diff := cmp.Diff(test.want, collect(m)); diff != "" {
			t.Errorf("test %d: unexpected entries (-want +got):\n%s", ti, diff)
		}
		keys := slices.Collect(m.Keys())
		for i, k := range keys {
			if k != test.want[i].K {
				t.Errorf("test %d: key %d: got %s but want %s", ti, i, k, test.want[i].K)
			}
		}
	}
}
