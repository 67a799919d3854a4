// Copyright (c) 2016 Bob Ziuchkovski
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package aslog

import (
	"regexp"
	"strconv"
	"strings"
)

// QueryMatches evaluates q against m.  The query succeeds when every one
// of its entries succeeds (entries are AND-combined).  An entry with no
// relation places no constraint and always succeeds.
func QueryMatches(q *Query, m *Message) bool {
	if q == nil || m == nil {
		return false
	}

	for i := range q.rec.entries {
		e := &q.rec.entries[i]
		j := m.rec.index(e.key)

		switch e.op.Rel {
		case RelNone:
			continue
		case RelTrue:
			if j < 0 {
				return false
			}
			continue
		case RelFalse:
			if j >= 0 {
				return false
			}
			continue
		}

		if j < 0 {
			// message lacks the key: fail unless testing not-equal
			if e.op.Rel == RelNotEqual {
				continue
			}
			return false
		}

		mv := m.rec.entries[j].val
		if e.key == KeyTime && e.op.Mod&(ModPrefix|ModSuffix|ModRegex) == 0 {
			if ok, decided := testTime(e.op, e.val, mv); decided {
				if !ok {
					return false
				}
				continue
			}
		}

		if !testExpression(e.op, e.val, mv) {
			return false
		}
	}

	return true
}

// Cmp compares two records.  Two records of the same variant compare for
// equality; a query compared against a message evaluates the query.
func Cmp(a, b Record) bool {
	if a == nil || b == nil {
		return false
	}

	switch at := a.(type) {
	case *Message:
		if bm, ok := b.(*Message); ok {
			return at.Equal(bm)
		}
		if bq, ok := b.(*Query); ok {
			return QueryMatches(bq, at)
		}
	case *Query:
		if bq, ok := b.(*Query); ok {
			return at.Equal(bq)
		}
		if bm, ok := b.(*Message); ok {
			return QueryMatches(at, bm)
		}
	}
	return false
}

// testTime compares two time values in seconds when both parse.  decided
// is false when either side fails to parse, in which case the caller falls
// back to the generic expression test.
func testTime(op Op, qv, mv *string) (ok, decided bool) {
	if qv == nil || mv == nil {
		return false, false
	}

	tq, err := ParseTime(*qv)
	if err != nil {
		return false, false
	}
	tm, err := ParseTime(*mv)
	if err != nil {
		return false, false
	}

	switch op.Rel {
	case RelEqual:
		return tm == tq, true
	case RelGreater:
		return tm > tq, true
	case RelGreaterEqual:
		return tm >= tq, true
	case RelLess:
		return tm < tq, true
	case RelLessEqual:
		return tm <= tq, true
	case RelNotEqual:
		return tm != tq, true
	}
	return false, true
}

// testExpression splits out prefix, suffix, and substring tests and sends
// the rest to basicTest.
func testExpression(op Op, qv, mv *string) bool {
	if op.Rel == RelTrue {
		return true
	}

	if op.Mod&ModPrefix != 0 {
		if op.Mod&ModSuffix != 0 {
			return testSubstring(op, qv, mv)
		}
		return testPrefix(op, qv, mv)
	}
	if op.Mod&ModSuffix != 0 {
		return testSuffix(op, qv, mv)
	}

	return basicTest(op, qv, mv)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// testSubstring scans every offset of the message value for an equality
// match of the query value.
func testSubstring(op Op, qv, mv *string) bool {
	q, m := deref(qv), deref(mv)

	// the empty string is a substring of any string
	if len(q) == 0 {
		return op.Rel.hasEqualBit()
	}

	// a long string is never equal to a short string
	if len(q) > len(m) {
		return op.Rel == RelNotEqual
	}

	// ordering relations make no sense in a substring search
	if op.Rel == RelGreater || op.Rel == RelLess {
		return false
	}

	sub := Op{Rel: RelEqual, Mod: op.Mod & ModCaseFold}
	match := false
	for i := 0; i+len(q) <= len(m); i++ {
		window := m[i : i+len(q)]
		if basicTest(sub, &q, &window) {
			if op.Rel.hasEqualBit() {
				return true
			}
			match = true
		}
	}

	if op.Rel.hasEqualBit() {
		return false
	}
	return !match
}

func testPrefix(op Op, qv, mv *string) bool {
	q, m := deref(qv), deref(mv)

	if len(q) == 0 {
		return op.Rel.hasEqualBit()
	}
	if len(q) > len(m) {
		return op.Rel == RelNotEqual
	}

	head := m[:len(q)]
	return basicTest(op, &q, &head)
}

func testSuffix(op Op, qv, mv *string) bool {
	q, m := deref(qv), deref(mv)

	if len(q) == 0 {
		return op.Rel.hasEqualBit()
	}
	if len(q) > len(m) {
		return op.Rel == RelNotEqual
	}

	tail := m[len(m)-len(q):]
	return basicTest(op, &q, &tail)
}

// basicTest evaluates a regex, numeric, or string comparison of the query
// value against the message value.
func basicTest(op Op, qv, mv *string) bool {
	rel := op.Rel

	// a missing value on either side fails everything but not-equal
	// (and the ordering relations that share its encoding bits)
	if qv == nil || mv == nil {
		return uint32(rel)&uint32(RelNotEqual) != 0
	}
	q, m := *qv, *mv

	if op.Mod&ModRegex != 0 {
		// ordering makes no sense in a pattern match
		if rel == RelGreater || rel == RelLess {
			return false
		}

		pat := q
		if op.Mod&ModCaseFold != 0 {
			pat = "(?i)" + pat
		}

		// a bad regular expression matches nothing
		re, err := regexp.Compile(pat)
		if err != nil {
			return rel == RelNotEqual
		}

		matched := re.MatchString(m)
		if rel == RelNotEqual {
			return !matched
		}
		return matched
	}

	if op.Mod&ModNumeric != 0 {
		nq, qok := parseNumber(q)
		nm, mok := parseNumber(m)
		if !qok || !mok {
			return rel == RelNotEqual
		}

		switch rel {
		case RelEqual:
			return nm == nq
		case RelGreater:
			return nm > nq
		case RelGreaterEqual:
			return nm >= nq
		case RelLess:
			return nm < nq
		case RelLessEqual:
			return nm <= nq
		case RelNotEqual:
			return nm != nq
		}
		return rel == RelNotEqual
	}

	if op.Mod&ModCaseFold != 0 {
		q = asciiLower(q)
		m = asciiLower(m)
	}
	cmp := strings.Compare(m, q)

	switch rel {
	case RelEqual:
		return cmp == 0
	case RelGreater:
		return cmp > 0
	case RelGreaterEqual:
		return cmp >= 0
	case RelLess:
		return cmp < 0
	case RelLessEqual:
		return cmp <= 0
	case RelNotEqual:
		return cmp != 0
	}
	return rel == RelNotEqual
}

// parseNumber accepts an optionally-signed decimal integer.
func parseNumber(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i = 1
	}
	if i == len(s) {
		return 0, false
	}
	for j := i; j < len(s); j++ {
		if s[j] < '0' || s[j] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func asciiLower(s string) string {
	lower := func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}
	return strings.Map(lower, s)
}
