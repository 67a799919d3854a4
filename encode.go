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
	"encoding/base64"
	"fmt"
)

// Encoding selects the character encoding applied to attribute values when
// rendering to a local sink.
type Encoding uint32

// Encodings.  EncodeASL is the canonical escape alphabet used by the
// textual record form; EncodeSafe is a minimal encoding for terminal-style
// sinks that neutralizes line-spoofing; EncodeNone passes bytes through.
const (
	EncodeNone Encoding = iota
	EncodeSafe
	EncodeASL
)

// ParseEncoding maps an encoding selector string to an Encoding.  Unknown
// selectors fall back to EncodeNone.
func ParseEncoding(s string) Encoding {
	switch s {
	case "safe":
		return EncodeSafe
	case "asl":
		return EncodeASL
	}
	return EncodeNone
}

// canonical escape letters for bytes 0x07..0x0D
const cvis = "abtnvfr"

// appendEncoded writes s to b under the given encoding.  escapeSpace
// applies only to the canonical encoding; key tokens escape spaces, value
// tokens do so as well in the wire form, while human-readable formats pass
// spaces through.
func appendEncoded(b *buffer, s string, enc Encoding, escapeSpace bool) {
	switch enc {
	case EncodeNone:
		b.AppendString(s)
	case EncodeSafe:
		for i := 0; i < len(s); i++ {
			switch c := s[i]; c {
			case '\n', '\r':
				b.AppendString("\n\t")
			case '\b':
				b.AppendString("^H")
			default:
				b.AppendByte(c)
			}
		}
	case EncodeASL:
		for i := 0; i < len(s); i++ {
			appendCanonicalByte(b, s[i], escapeSpace)
		}
	}
}

// appendCanonicalByte writes one byte in the canonical escape alphabet.
// High bytes get a \M meta prefix and are then encoded from their low
// seven bits; 0xA0 is the lone octal special case.
func appendCanonicalByte(b *buffer, c byte, escapeSpace bool) {
	if c == 0 {
		// NUL is forbidden in keys and values; drop it.
		return
	}

	meta := false
	if c >= 128 {
		if c == 160 {
			b.AppendString(`\240`)
			return
		}
		b.AppendString(`\M`)
		c &= 0x7f
		meta = true
	}

	switch {
	case c == ' ':
		if escapeSpace {
			b.AppendString(`\s`)
		} else {
			b.AppendByte(' ')
		}
	case !meta && c == '\\':
		b.AppendString(`\\`)
	case !meta && (c == '[' || c == ']'):
		b.AppendByte('\\')
		b.AppendByte(c)
	case c == 0x7f:
		if !meta {
			b.AppendByte('\\')
		}
		b.AppendString("^?")
	case c >= 33 && c <= 126:
		if meta {
			b.AppendByte('-')
		}
		b.AppendByte(c)
	case !meta && c >= 7 && c <= 13:
		b.AppendByte('\\')
		b.AppendByte(cvis[c-7])
	default:
		// remaining control range 0x00..0x1F
		if !meta {
			b.AppendByte('\\')
		}
		b.AppendByte('^')
		b.AppendByte(64 + c)
	}
}

// appendXMLString writes s with the XML entity escapes and &#xNN; control
// escapes used by the property-list output format.  The caller has already
// verified s is valid UTF-8.
func appendXMLString(b *buffer, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '&':
			b.AppendString("&amp;")
		case c == '<':
			b.AppendString("&lt;")
		case c == '>':
			b.AppendString("&gt;")
		case c == '"':
			b.AppendString("&quot;")
		case c == '\'':
			b.AppendString("&apos;")
		case c < 0x20 || c == 0x7f:
			b.AppendString(fmt.Sprintf("&#x%02x;", c))
		default:
			b.AppendByte(c)
		}
	}
}

// base64String wraps a non-UTF-8 value for the <data> element: standard
// RFC 4648 alphabet, no line wrapping.
func base64String(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
