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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpToken(t *testing.T) {
	cases := []struct {
		op   Op
		want string
	}{
		{Op{}, "."},
		{Op{Rel: RelFalse}, "."},
		{Op{Rel: RelEqual}, "="},
		{Op{Rel: RelGreater}, ">"},
		{Op{Rel: RelGreaterEqual}, ">="},
		{Op{Rel: RelLess}, "<"},
		{Op{Rel: RelLessEqual}, "<="},
		{Op{Rel: RelNotEqual}, "!"},
		{Op{Rel: RelTrue}, "T"},
		{Op{Rel: RelLessEqual, Mod: ModCaseFold | ModNumeric}, "CN<="},
		{Op{Rel: RelEqual, Mod: ModRegex | ModCaseFold}, "CR="},
		{Op{Rel: RelEqual, Mod: ModPrefix}, "A="},
		{Op{Rel: RelEqual, Mod: ModSuffix}, "Z="},
		{Op{Rel: RelEqual, Mod: ModSubstring}, "S="},
		{Op{Mod: ModCaseFold}, "C"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.op.token(), "op %+v", c.op)
	}
}

func TestOpFromToken(t *testing.T) {
	cases := []struct {
		in   string
		want Op
	}{
		{".", Op{}},
		{"=", Op{Rel: RelEqual}},
		{">=", Op{Rel: RelGreaterEqual}},
		{"<=", Op{Rel: RelLessEqual}},
		{"!", Op{Rel: RelNotEqual}},
		{"T", Op{Rel: RelTrue}},
		{"CN<=", Op{Rel: RelLessEqual, Mod: ModCaseFold | ModNumeric}},
		{"S=", Op{Rel: RelEqual, Mod: ModSubstring}},
		{"AZ=", Op{Rel: RelEqual, Mod: ModSubstring}},
		// unknown letters are ignored for forward compatibility
		{"QX=", Op{Rel: RelEqual}},
		// a dot anywhere nullifies the operator
		{"C.=", Op{}},
	}
	for _, c := range cases {
		got := opFromToken(c.in)
		assert.Equal(t, c.want.Rel, got.Rel, "token %q", c.in)
		assert.Equal(t, c.want.Mod, got.Mod, "token %q", c.in)
	}
}

func TestOpTokenRoundTrip(t *testing.T) {
	rels := []Relation{RelEqual, RelGreater, RelGreaterEqual, RelLess, RelLessEqual, RelNotEqual, RelTrue, RelNone}
	mods := []Modifier{0, ModCaseFold, ModNumeric, ModRegex, ModPrefix, ModSuffix, ModSubstring, ModCaseFold | ModNumeric}

	for _, r := range rels {
		for _, m := range mods {
			op := Op{Rel: r, Mod: m}
			back := opFromToken(op.token())
			assert.Equal(t, op.Rel, back.Rel, "op %+v", op)
			assert.Equal(t, op.Mod, back.Mod, "op %+v", op)
		}
	}
}

func TestOpBitsRoundTrip(t *testing.T) {
	// documented bits
	op := OpFromBits(0x10 | 0x40 | 0x5)
	assert.Equal(t, RelLessEqual, op.Rel)
	assert.Equal(t, ModCaseFold|ModNumeric, op.Mod)
	assert.Equal(t, uint32(0x55), op.Bits())

	// reserved upper bits survive decode-encode untouched
	op = OpFromBits(0xdead0000 | 0x8 | 0x101)
	assert.Equal(t, uint32(0xdead0000|0x8|0x101), op.Bits())
	assert.Equal(t, RelEqual, op.Rel)
	assert.Equal(t, ModSuffix, op.Mod)
}
