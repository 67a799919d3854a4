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
	"errors"
	"strconv"
	"strings"
)

// ErrBadFormat is returned for malformed canonical record or list text.
// Parse failures never yield a partially-populated record.
var ErrBadFormat = errors.New("aslog: malformed record text")

// String renders the message in the canonical bracketed form:
//
//	[key1 value1] [key2 value2] ...
//
// An empty message renders as "".
func (m *Message) String() string {
	if m == nil || len(m.rec.entries) == 0 {
		return ""
	}
	b := getBuffer()
	defer releaseBuffer(b)
	appendRecordText(b, false, m.rec.entries, "")
	return string(b.Bytes())
}

// String renders the query in the canonical bracketed form with its "Q "
// prefix and per-entry operator tokens:
//
//	Q [OP1 key1 value1] [OP2 key2 value2] ...
func (q *Query) String() string {
	if q == nil {
		return ""
	}
	b := getBuffer()
	defer releaseBuffer(b)
	appendRecordText(b, true, q.rec.entries, "")
	return string(b.Bytes())
}

// appendRecordText writes the canonical single-record form.  When tfmt
// names a time format other than "sec", the Time attribute value is
// re-rendered in that format (used by the raw output mode).
func appendRecordText(b *buffer, isQuery bool, entries []entry, tfmt string) {
	if isQuery {
		b.AppendString("Q ")
	}

	for i := range entries {
		e := &entries[i]
		if e.key == "" {
			continue
		}

		if i > 0 {
			b.AppendString(" [")
		} else {
			b.AppendByte('[')
		}

		if isQuery {
			b.AppendString(e.op.token())
			b.AppendByte(' ')
		}

		appendEncoded(b, e.key, EncodeASL, true)

		if tfmt != "" && tfmt != TimeFormatSec && e.key == KeyTime {
			b.AppendByte(' ')
			appendEncoded(b, timeString(tfmt, e.val), EncodeASL, true)
		} else if e.val != nil {
			b.AppendByte(' ')
			appendEncoded(b, *e.val, EncodeASL, true)
		}

		b.AppendByte(']')
	}
}

// Tokenizer
//
// The canonical form tokenizes into open/close brackets and escaped words.
// A word consisting solely of digits is an integer token; a leading integer
// token outside any group is a legacy length prefix and is skipped.

const (
	tokEOF = iota
	tokOpen
	tokClose
	tokWord
	tokInt
)

type tokenizer struct {
	s   string
	pos int
}

// next scans one token.  With spaceDelim set, unescaped spaces terminate
// the token; without it the token runs to the closing bracket, so values
// may contain unescaped spaces.  Scanning stops at end of input or at a
// newline, which delimits records in list form.
func (t *tokenizer) next(spaceDelim bool) (string, int, error) {
	if t.pos >= len(t.s) {
		return "", tokEOF, nil
	}

	skipped := false
	if t.s[t.pos] == ' ' {
		t.pos++
		skipped = true
	}
	if spaceDelim {
		for t.pos < len(t.s) && (t.s[t.pos] == ' ' || t.s[t.pos] == '\t') {
			t.pos++
		}
	}

	if t.pos >= len(t.s) || t.s[t.pos] == '\n' {
		return "", tokEOF, nil
	}

	if t.s[t.pos] == '[' {
		t.pos++
		return "[", tokOpen, nil
	}

	if t.s[t.pos] == ']' {
		if !spaceDelim && skipped {
			// A separator followed directly by the close bracket is an
			// empty value token; the bracket is left for the next call.
			return "", tokWord, nil
		}
		t.pos++
		return "]", tokClose, nil
	}

	kind := tokInt
	var out []byte
	for t.pos < len(t.s) {
		c := t.s[t.pos]
		if (spaceDelim && c == ' ') || c == ']' || c == '\n' {
			break
		}

		if c != '\\' {
			if c < '0' || c > '9' {
				kind = tokWord
			}
			out = append(out, c)
			t.pos++
			continue
		}

		kind = tokWord
		dec, err := t.escape()
		if err != nil {
			return "", tokEOF, err
		}
		out = append(out, dec)
	}

	return string(out), kind, nil
}

// escape decodes one backslash escape starting at the current position.
func (t *tokenizer) escape() (byte, error) {
	// caller verified t.s[t.pos] == '\\'
	t.pos++
	if t.pos >= len(t.s) {
		return 0, ErrBadFormat
	}

	c := t.s[t.pos]
	t.pos++

	switch c {
	case 'a':
		return '\a', nil
	case 'b':
		return '\b', nil
	case 't':
		return '\t', nil
	case 'n':
		return '\n', nil
	case 'v':
		return '\v', nil
	case 'f':
		return '\f', nil
	case 'r':
		return '\r', nil
	case 's':
		return ' ', nil
	case '[', '\\', ']':
		return c, nil
	case '^':
		if t.pos >= len(t.s) {
			return 0, ErrBadFormat
		}
		x := t.s[t.pos]
		t.pos++
		if x == '?' {
			return 0x7f, nil
		}
		return x - 64, nil
	case 'M':
		if t.pos+1 >= len(t.s) {
			return 0, ErrBadFormat
		}
		mode := t.s[t.pos]
		x := t.s[t.pos+1]
		t.pos += 2
		switch mode {
		case '^':
			if x == '?' {
				return 0xff, nil
			}
			return x + 64, nil
		case '-':
			return x + 128, nil
		}
		return 0, ErrBadFormat
	case '0', '1', '2', '3':
		if t.pos+1 >= len(t.s) {
			return 0, ErrBadFormat
		}
		o1 := t.s[t.pos]
		o2 := t.s[t.pos+1]
		t.pos += 2
		if o1 < '0' || o1 > '7' || o2 < '0' || o2 > '7' {
			return 0, ErrBadFormat
		}
		return (c-'0')*64 + (o1-'0')*8 + (o2 - '0'), nil
	}
	return 0, ErrBadFormat
}

// ParseRecord parses the canonical single-record form.  The variant is
// selected by the leading bare "Q" token; a leading bare integer is a
// legacy length prefix and is skipped.  Malformed input returns a nil
// record and ErrBadFormat.
func ParseRecord(s string) (Record, error) {
	t := &tokenizer{s: s}

	tok, kind, err := t.next(true)
	if err != nil || kind == tokEOF {
		return nil, ErrBadFormat
	}

	isQuery := false
	if kind == tokWord && tok == "Q" {
		isQuery = true
		_, kind, err = t.next(true)
	} else if kind == tokInt {
		_, kind, err = t.next(true)
		if err == nil && kind == tokEOF {
			return nil, ErrBadFormat
		}
	}
	if err != nil {
		return nil, ErrBadFormat
	}

	var (
		msg *Message
		qry *Query
	)
	if isQuery {
		qry = NewQuery()
	} else {
		msg = &Message{}
	}

	done := func() (Record, error) {
		if isQuery {
			return qry, nil
		}
		return msg, nil
	}

	for kind != tokEOF {
		if kind != tokOpen {
			return nil, ErrBadFormat
		}

		var op Op
		if isQuery {
			otok, okind, oerr := t.next(true)
			if oerr != nil || okind != tokWord {
				return nil, ErrBadFormat
			}
			op = opFromToken(otok)
		}

		key, kkind, kerr := t.next(true)
		if kerr != nil || (kkind != tokWord && kkind != tokInt) {
			return nil, ErrBadFormat
		}

		val, vkind, verr := t.next(false)
		if verr != nil {
			return nil, ErrBadFormat
		}

		switch vkind {
		case tokEOF:
			// truncated final group; keep the key, end the record
			setParsed(msg, qry, key, nil, op)
			return done()
		case tokClose:
			setParsed(msg, qry, key, nil, op)
		case tokWord, tokInt:
			setParsed(msg, qry, key, &val, op)
			_, ckind, cerr := t.next(true)
			if cerr != nil {
				return nil, ErrBadFormat
			}
			if ckind == tokEOF {
				return done()
			}
			if ckind != tokClose {
				return nil, ErrBadFormat
			}
		}

		_, kind, err = t.next(true)
		if err != nil {
			return nil, ErrBadFormat
		}
	}

	return done()
}

// setParsed adds a parsed entry to whichever record variant is being
// built.  Per-key normalization failures (an unparseable Level value)
// drop the entry, matching the historical decoder.
func setParsed(msg *Message, qry *Query, key string, val *string, op Op) {
	if msg != nil {
		if val == nil {
			_ = msg.setKeyOnly(key)
		} else {
			_ = msg.Set(key, *val)
		}
		return
	}
	if val == nil {
		_ = qry.SetQueryKey(key, op)
	} else {
		_ = qry.SetQuery(key, *val, op)
	}
}

// EncodeList serializes a list of records: the decimal count, a newline,
// then each record followed by a newline.  An empty list encodes as "".
func EncodeList(list []Record) string {
	if len(list) == 0 {
		return ""
	}

	b := getBuffer()
	defer releaseBuffer(b)

	b.AppendString(strconv.Itoa(len(list)))
	b.AppendByte('\n')
	for _, r := range list {
		b.AppendString(r.String())
		b.AppendByte('\n')
	}
	return string(b.Bytes())
}

// DecodeList parses a serialized record list.  A count of zero, a missing
// record, or any malformed member is an error; no partial list is
// returned.
func DecodeList(s string) ([]Record, error) {
	nl := strings.IndexByte(s, '\n')
	if nl <= 0 {
		return nil, ErrBadFormat
	}

	n, err := strconv.Atoi(s[:nl])
	if err != nil || n <= 0 {
		return nil, ErrBadFormat
	}

	sizeHint := n
	if sizeHint > 4096 {
		// don't trust the count for allocation; grow as records arrive
		sizeHint = 4096
	}
	out := make([]Record, 0, sizeHint)
	pos := nl + 1
	for i := 0; i < n; i++ {
		r, err := ParseRecord(s[pos:])
		if err != nil {
			return nil, ErrBadFormat
		}
		out = append(out, r)

		next := strings.IndexByte(s[pos:], '\n')
		if next < 0 {
			if i != n-1 {
				return nil, ErrBadFormat
			}
			break
		}
		pos += next + 1
	}
	return out, nil
}
