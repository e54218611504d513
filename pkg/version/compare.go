/*
Copyright The Modfetch Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package version implements the total order over version strings used when
// picking the highest matching version of a module.
//
// A version string is segmented on '.', '-' and '_' separators and on
// letter/digit boundaries. Numeric segments compare numerically, everything
// else compares lexicographically. A version that is a strict prefix of
// another sorts first, so "1.2" < "1.2.1".
package version // import "github.com/modfetch/modfetch/pkg/version"

import (
	"sort"
	"strings"
)

// Compare returns -1 if a sorts before b, 1 if a sorts after b, and 0 if the
// two are equal under the segment ordering.
func Compare(a, b string) int {
	as := segments(a)
	bs := segments(b)

	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

// Sort orders versions ascending, in place.
func Sort(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) < 0
	})
}

// Max returns the highest version in the list, or the empty string for an
// empty list.
func Max(versions []string) string {
	max := ""
	for _, v := range versions {
		if max == "" || Compare(v, max) > 0 {
			max = v
		}
	}
	return max
}

// segments splits a version string into comparison units. Separators are
// dropped; a boundary between a digit and a letter also starts a new segment,
// so "1.0a" becomes ["1", "0", "a"].
func segments(v string) []string {
	var segs []string
	var cur strings.Builder
	lastDigit := false

	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, cur.String())
			cur.Reset()
		}
	}

	for _, r := range v {
		if r == '.' || r == '-' || r == '_' {
			flush()
			continue
		}
		if cur.Len() > 0 && isDigit(r) != lastDigit {
			flush()
		}
		cur.WriteRune(r)
		lastDigit = isDigit(r)
	}
	flush()
	return segs
}

func compareSegment(a, b string) int {
	an, aok := numeric(a)
	bn, bok := numeric(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func numeric(s string) (uint64, bool) {
	var n uint64
	for _, r := range s {
		if !isDigit(r) {
			return 0, false
		}
		n = n*10 + uint64(r-'0')
	}
	return n, len(s) > 0
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
