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
	"strconv"
	"time"
	"unicode/utf8"
)

// Message format selectors.  Any other non-empty string is treated as a
// formatting template.
const (
	FormatRaw = "raw"
	FormatStd = "std"
	FormatBSD = "bsd"
	FormatXML = "xml"
	FormatMsg = "msg"
)

// Time format selectors.
const (
	TimeFormatSec = "sec"
	TimeFormatUTC = "utc"
	TimeFormatLcl = "lcl"
)

// timeString renders a Time attribute value under a time format selector.
// A nil or unparseable value renders as the epoch.
func timeString(tfmt string, val *string) string {
	var tick int64
	if val != nil {
		if t, err := ParseTime(*val); err == nil {
			tick = t
		}
	}

	switch tfmt {
	case TimeFormatUTC:
		return time.Unix(tick, 0).UTC().Format("2006.01.02 15:04:05 UTC")
	case TimeFormatLcl:
		// ctime form, truncated before the year
		return time.Unix(tick, 0).Local().Format("Mon Jan _2 15:04:05")
	}
	return strconv.FormatInt(tick, 10)
}

// FormatMessage renders a message for output.  mfmt selects the message
// format ("raw", "std", "bsd", "xml", "msg", or a template), tfmt the time
// format ("sec", "utc", "lcl"), and enc the character encoding applied to
// attribute values in the "msg", "bsd" and "std" formats (raw always uses
// the canonical encoding; xml and templates ignore enc).  The result ends
// in a newline.  A nil result means the
// message has nothing to render in the selected format.
func FormatMessage(m *Message, mfmt, tfmt string, enc Encoding) []byte {
	if m == nil {
		return nil
	}

	if tfmt == "" {
		tfmt = TimeFormatSec
	}

	b := getBuffer()
	defer releaseBuffer(b)

	switch mfmt {
	case "", FormatRaw:
		if len(m.rec.entries) == 0 {
			return nil
		}
		appendRecordText(b, false, m.rec.entries, tfmt)
		b.AppendByte('\n')
	case FormatMsg:
		mstr, ok := m.Get(KeyMsg)
		if !ok {
			return nil
		}
		appendEncoded(b, mstr, enc, false)
		b.AppendByte('\n')
	case FormatBSD:
		appendBSD(b, m, tfmt, enc, false)
	case FormatStd:
		appendBSD(b, m, tfmt, enc, true)
	case FormatXML:
		appendXML(b, m, tfmt)
	default:
		appendTemplate(b, m, mfmt, tfmt)
	}

	if b.Len() == 0 {
		return nil
	}
	return b.take()
}

// appendBSD renders the traditional syslog line:
//
//	TIME HOST SENDER[PID] (REFPROC[REFPID]): MESSAGE
//
// With level set, the standard format inserts <LEVELNAME> before the
// colon.  Missing host and sender render as "unknown"; a PID of -1 is
// suppressed.
func appendBSD(b *buffer, m *Message, tfmt string, enc Encoding, withLevel bool) {
	var tval *string
	if v, ok := m.Get(KeyTime); ok {
		tval = &v
	}
	b.AppendString(timeString(tfmt, tval))
	b.AppendByte(' ')

	if h, ok := m.Get(KeyHost); ok {
		appendEncoded(b, h, enc, false)
	} else {
		b.AppendString("unknown")
	}
	b.AppendByte(' ')

	if s, ok := m.Get(KeySender); ok {
		appendEncoded(b, s, enc, false)
	} else {
		b.AppendString("unknown")
	}

	if p, ok := m.Get(KeyPID); ok && p != "-1" {
		b.AppendByte('[')
		b.AppendString(p)
		b.AppendByte(']')
	}

	rproc, rpok := m.Get(KeyRefProc)
	rpid, ridok := m.Get(KeyRefPID)
	if rpok || ridok {
		b.AppendString(" (")
		if rpok {
			appendEncoded(b, rproc, enc, false)
		}
		if ridok {
			b.AppendByte('[')
			b.AppendString(rpid)
			b.AppendByte(']')
		}
		b.AppendByte(')')
	}

	if withLevel {
		level := Level(-1)
		if l, ok := m.Get(KeyLevel); ok {
			if n, err := strconv.Atoi(l); err == nil {
				level = Level(n)
			}
		}
		b.AppendString(" <")
		b.AppendString(level.String())
		b.AppendByte('>')
	}

	b.AppendString(": ")
	if msg, ok := m.Get(KeyMsg); ok {
		appendEncoded(b, msg, enc, false)
	}
	b.AppendByte('\n')
}

// appendXML renders the property-list dict form.  Entries with keys that
// are not valid UTF-8 are skipped; values that are not valid UTF-8 are
// wrapped as base64 data elements.
func appendXML(b *buffer, m *Message, tfmt string) {
	b.AppendString("\t<dict>\n")

	for i := range m.rec.entries {
		e := &m.rec.entries[i]
		if !utf8.ValidString(e.key) {
			continue
		}

		b.AppendString("\t\t<key>")
		appendXMLString(b, e.key)
		b.AppendString("</key>\n")

		if e.key == KeyTime {
			b.AppendString("\t\t<string>")
			appendXMLString(b, timeString(tfmt, e.val))
			b.AppendString("</string>\n")
			continue
		}

		val := ""
		if e.val != nil {
			val = *e.val
		}
		if utf8.ValidString(val) {
			b.AppendString("\t\t<string>")
			appendXMLString(b, val)
			b.AppendString("</string>\n")
		} else {
			b.AppendString("\t\t<data>")
			b.AppendString(base64String(val))
			b.AppendString("</data>\n")
		}
	}

	b.AppendString("\t</dict>\n")
}

// appendTemplate renders a printf-like template: $K and $(K) expand to
// attribute values (Time values honor the time format), backslash escapes
// expand to their conventional bytes, \NNN to an octal byte value, and
// everything else passes through.
func appendTemplate(b *buffer, m *Message, mfmt, tfmt string) {
	for i := 0; i < len(mfmt); i++ {
		if mfmt[i] == '$' {
			i++
			paren := false
			if i < len(mfmt) && mfmt[i] == '(' {
				paren = true
				i++
			}

			var key []byte
			j := i
			for ; j < len(mfmt); j++ {
				c := mfmt[j]
				if c == '\\' && j+1 < len(mfmt) {
					j++
					key = append(key, mfmt[j])
					continue
				}
				if paren && c == ')' {
					break
				}
				// an unescaped space ends the key even inside $(...)
				if c == ' ' {
					break
				}
				key = append(key, c)
			}
			if paren && j < len(mfmt) {
				j++
			}
			i = j

			if len(key) > 0 {
				if v, ok := m.Get(string(key)); ok {
					if string(key) == KeyTime {
						b.AppendString(timeString(tfmt, &v))
					} else {
						b.AppendString(v)
					}
				}
			}
		}

		if i >= len(mfmt) {
			break
		}

		if mfmt[i] == '\\' {
			i++
			if i >= len(mfmt) {
				break
			}
			switch c := mfmt[i]; c {
			case '$':
				b.AppendByte('$')
			case 'e':
				b.AppendByte(0x1b)
			case 's':
				b.AppendByte(' ')
			case 'a':
				b.AppendByte('\a')
			case 'b':
				b.AppendByte('\b')
			case 'f':
				b.AppendByte('\f')
			case 'n':
				b.AppendByte('\n')
			case 'r':
				b.AppendByte('\r')
			case 't':
				b.AppendByte('\t')
			case 'v':
				b.AppendByte('\v')
			case '\'':
				b.AppendByte('\'')
			case '\\':
				b.AppendByte('\\')
			default:
				if c >= '0' && c <= '9' {
					oval := int(c - '0')
					for k := 0; k < 2 && i+1 < len(mfmt) && mfmt[i+1] >= '0' && mfmt[i+1] <= '9'; k++ {
						i++
						oval = oval*8 + int(mfmt[i]-'0')
					}
					b.AppendByte(byte(oval))
				}
			}
			continue
		}

		b.AppendByte(mfmt[i])
	}

	b.AppendByte('\n')
}
