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

// Relation is the comparison relation of a query operator.  The non-zero
// values occupy the low three bits of the legacy wire encoding.
type Relation uint32

// Relations.  RelNone places no constraint on the entry.  RelFalse tests
// for key absence; it shares the legacy encoding of RelNone (both emit "."),
// so it survives the API but not a serialization round trip.
const (
	RelNone         Relation = 0
	RelEqual        Relation = 1
	RelGreater      Relation = 2
	RelGreaterEqual Relation = 3
	RelLess         Relation = 4
	RelLessEqual    Relation = 5
	RelNotEqual     Relation = 6
	RelTrue         Relation = 7
	RelFalse        Relation = 8
)

// hasEqualBit reports whether the relation's legacy encoding includes the
// equality bit.  Substring tests with an empty query value succeed exactly
// for these relations.
func (r Relation) hasEqualBit() bool {
	return r <= RelTrue && r&RelEqual != 0
}

// Modifier is a set of operator modifier flags.  The values match the
// legacy wire encoding.
type Modifier uint32

// Modifiers.  ModSubstring is the combination of ModPrefix and ModSuffix.
const (
	ModCaseFold  Modifier = 0x10
	ModRegex     Modifier = 0x20
	ModNumeric   Modifier = 0x40
	ModPrefix    Modifier = 0x80
	ModSuffix    Modifier = 0x100
	ModSubstring Modifier = ModPrefix | ModSuffix
)

const (
	relBits = 0x7
	modBits = 0x1f0
)

// Op describes how one query entry is compared against a message value:
// a relation, a set of modifier flags, and any unrecognized bits carried
// through from a legacy encoder.
type Op struct {
	Rel Relation
	Mod Modifier

	// unknown holds bits outside the documented alphabet so that
	// OpFromBits followed by Bits is lossless.
	unknown uint32
}

// OpEqual is the operator recorded for plain equality constraints.
var OpEqual = Op{Rel: RelEqual}

// NewOp returns an operator with the given relation and modifiers.
func NewOp(rel Relation, mod Modifier) Op {
	return Op{Rel: rel, Mod: mod & Modifier(modBits)}
}

// OpFromBits decodes a legacy operator bitfield.  Unrecognized bits are
// preserved and re-emitted by Bits.
func OpFromBits(bits uint32) Op {
	return Op{
		Rel:     Relation(bits & relBits),
		Mod:     Modifier(bits & modBits),
		unknown: bits &^ uint32(relBits | modBits),
	}
}

// Bits encodes the operator as a legacy bitfield, including any preserved
// unknown bits.  RelFalse encodes as zero, the same as RelNone.
func (o Op) Bits() uint32 {
	rel := uint32(o.Rel)
	if o.Rel == RelFalse {
		rel = 0
	}
	return rel&relBits | uint32(o.Mod)&modBits | o.unknown
}

// token renders the canonical operator token: modifiers in the order
// C, R, N, then A/Z/S, then the relation symbol.  The null operator
// renders as ".".
func (o Op) token() string {
	var b []byte

	if o.Mod&ModCaseFold != 0 {
		b = append(b, 'C')
	}
	if o.Mod&ModRegex != 0 {
		b = append(b, 'R')
	}
	if o.Mod&ModNumeric != 0 {
		b = append(b, 'N')
	}
	if o.Mod&ModPrefix != 0 {
		if o.Mod&ModSuffix != 0 {
			b = append(b, 'S')
		} else {
			b = append(b, 'A')
		}
	} else if o.Mod&ModSuffix != 0 {
		b = append(b, 'Z')
	}

	switch o.Rel {
	case RelEqual:
		b = append(b, '=')
	case RelGreater:
		b = append(b, '>')
	case RelGreaterEqual:
		b = append(b, '>', '=')
	case RelLess:
		b = append(b, '<')
	case RelLessEqual:
		b = append(b, '<', '=')
	case RelNotEqual:
		b = append(b, '!')
	case RelTrue:
		b = append(b, 'T')
	}

	if len(b) == 0 {
		return "."
	}
	return string(b)
}

// opFromToken parses an operator token.  Unknown letters are ignored for
// forward compatibility.  A "." anywhere makes the operator null.
func opFromToken(tok string) Op {
	var op Op
	for i := 0; i < len(tok); i++ {
		switch tok[i] {
		case '.':
			return Op{}
		case 'C':
			op.Mod |= ModCaseFold
		case 'R':
			op.Mod |= ModRegex
		case 'N':
			op.Mod |= ModNumeric
		case 'S':
			op.Mod |= ModSubstring
		case 'A':
			op.Mod |= ModPrefix
		case 'Z':
			op.Mod |= ModSuffix
		case '<':
			op.Rel |= RelLess
		case '>':
			op.Rel |= RelGreater
		case '=':
			op.Rel |= RelEqual
		case '!':
			op.Rel |= RelNotEqual
		case 'T':
			op.Rel |= RelTrue
		}
	}
	op.Rel &= relBits
	return op
}
