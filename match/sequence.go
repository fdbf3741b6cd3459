// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package match

import "github.com/pmezard/go-difflib/difflib"

// Block is a run of equal runes: a[I:I+Size] == b[J:J+Size].
type Block struct {
	I, J, Size int
}

// runes splits s into one element per rune, the unit difflib compares.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// newSequenceMatcher compares a against b rune by rune. With autoJunk and b
// at least 200 runes long, a rune occurring more than 1+len(b)/100 times in
// b never seeds a match.
func newSequenceMatcher(a, b string, autoJunk bool) *difflib.SequenceMatcher {
	return difflib.NewMatcherWithJunk(runes(a), runes(b), autoJunk, nil)
}

// MatchingBlocks returns the matched blocks of a and b in increasing order,
// ending with the sentinel {len(a), len(b), 0}. Offsets count runes.
func MatchingBlocks(a, b string, autoJunk bool) []Block {
	matches := newSequenceMatcher(a, b, autoJunk).GetMatchingBlocks()
	blocks := make([]Block, len(matches))
	for i, m := range matches {
		blocks[i] = Block{I: m.A, J: m.B, Size: m.Size}
	}
	return blocks
}

// RatioWithJunk returns 2*M/T where M is the number of matched runes and T
// the total number of runes in both strings. Two empty strings are 1.0.
func RatioWithJunk(a, b string, autoJunk bool) float64 {
	return newSequenceMatcher(a, b, autoJunk).Ratio()
}

// Ratio scores a against b with the autojunk heuristic enabled.
func Ratio(a, b string) float64 {
	return RatioWithJunk(a, b, true)
}
