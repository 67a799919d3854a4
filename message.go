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
	"strings"
)

var (
	// ErrNulByte is returned when an attribute key or value contains a NUL
	// byte.
	ErrNulByte = errors.New("aslog: NUL byte in key or value")

	// ErrEmptyKey is returned when an attribute key is empty.
	ErrEmptyKey = errors.New("aslog: empty attribute key")
)

// entry is one attribute of a record.  A nil value distinguishes "key
// present without a value" from an empty value.  The operator is
// meaningful only in Query records.
type entry struct {
	key string
	val *string
	op  Op
}

// record is the ordered attribute list shared by Message and Query.
type record struct {
	entries []entry
}

// Record is the read interface common to Message and Query values.
type Record interface {
	Len() int
	Key(i int) string
	Val(i int) (string, bool)
	Get(key string) (string, bool)
	String() string

	// items seals the interface to the two in-package variants.
	items() []entry
}

// NewMessage returns a message record pre-populated with the standard
// attribute skeleton: Time, Host, Sender, PID, UID, GID, Level, and
// Message, in that order, all without values.  The send pipeline fills the
// missing values at transmit time.
func NewMessage() *Message {
	m := &Message{}
	for _, k := range []string{KeyTime, KeyHost, KeySender, KeyPID, KeyUID, KeyGID, KeyLevel, KeyMsg} {
		m.rec.entries = append(m.rec.entries, entry{key: k})
	}
	return m
}

// NewQuery returns an empty query record.
func NewQuery() *Query {
	return &Query{}
}

// Message is a concrete log record.
type Message struct {
	rec record
}

// Query is a structured query over log records.  Each entry constrains one
// attribute; entries are AND-combined by the match engine.
type Query struct {
	rec record
}

func (r *record) index(key string) int {
	for i := range r.entries {
		if r.entries[i].key == key {
			return i
		}
	}
	return -1
}

// normalizeValue applies the per-key value rules: trailing newlines are
// trimmed from Message values, and Level values are reduced to a single
// ASCII digit.
func normalizeValue(key, val string) (string, error) {
	if strings.IndexByte(val, 0) >= 0 {
		return "", ErrNulByte
	}

	switch key {
	case KeyMsg:
		return strings.TrimRight(val, "\n"), nil
	case KeyLevel:
		l, err := ParseLevel(val)
		if err != nil {
			return "", err
		}
		return l.digit(), nil
	}
	return val, nil
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.IndexByte(key, 0) >= 0 {
		return ErrNulByte
	}
	return nil
}

// Set sets the value for key.  If the key is already present, its value is
// replaced in place and iteration order is preserved; otherwise the entry
// is appended.
func (m *Message) Set(key, val string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	v, err := normalizeValue(key, val)
	if err != nil {
		return err
	}

	if i := m.rec.index(key); i >= 0 {
		m.rec.entries[i].val = &v
		return nil
	}
	m.rec.entries = append(m.rec.entries, entry{key: key, val: &v})
	return nil
}

// setKeyOnly records a key without a value, replacing any existing value.
// Used by the parser for "[key]" groups.
func (m *Message) setKeyOnly(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if i := m.rec.index(key); i >= 0 {
		m.rec.entries[i].val = nil
		return nil
	}
	m.rec.entries = append(m.rec.entries, entry{key: key})
	return nil
}

// SetQuery appends a constraint on key with the given operator.  Duplicate
// keys are allowed; each entry constrains independently.
func (q *Query) SetQuery(key, val string, op Op) error {
	if err := checkKey(key); err != nil {
		return err
	}
	v, err := normalizeValue(key, val)
	if err != nil {
		return err
	}
	q.rec.entries = append(q.rec.entries, entry{key: key, val: &v, op: op})
	return nil
}

// SetQueryKey appends a constraint on key with no value, typically used
// with RelTrue (key present) or RelFalse (key absent).
func (q *Query) SetQueryKey(key string, op Op) error {
	if err := checkKey(key); err != nil {
		return err
	}
	q.rec.entries = append(q.rec.entries, entry{key: key, op: op})
	return nil
}

func (r *record) unset(key string) {
	if i := r.index(key); i >= 0 {
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
	}
}

// Unset removes the first entry with the given key.
func (m *Message) Unset(key string) { m.rec.unset(key) }

// Unset removes the first entry with the given key.
func (q *Query) Unset(key string) { q.rec.unset(key) }

func (r *record) get(key string) (string, bool) {
	i := r.index(key)
	if i < 0 || r.entries[i].val == nil {
		return "", false
	}
	return *r.entries[i].val, true
}

func (r *record) val(i int) (string, bool) {
	if i < 0 || i >= len(r.entries) || r.entries[i].val == nil {
		return "", false
	}
	return *r.entries[i].val, true
}

func (r *record) key(i int) string {
	if i < 0 || i >= len(r.entries) {
		return ""
	}
	return r.entries[i].key
}

// Get returns the value of the first entry with the given key.  The second
// return is false when the key is absent or has no value.
func (m *Message) Get(key string) (string, bool) { return m.rec.get(key) }

// Get returns the value of the first entry with the given key.
func (q *Query) Get(key string) (string, bool) { return q.rec.get(key) }

// Len returns the number of entries.
func (m *Message) Len() int { return len(m.rec.entries) }

// Len returns the number of entries.
func (q *Query) Len() int { return len(q.rec.entries) }

// Key returns the key of the i'th entry, or "" if out of range.
func (m *Message) Key(i int) string { return m.rec.key(i) }

// Key returns the key of the i'th entry, or "" if out of range.
func (q *Query) Key(i int) string { return q.rec.key(i) }

// Val returns the value of the i'th entry.
func (m *Message) Val(i int) (string, bool) { return m.rec.val(i) }

// Val returns the value of the i'th entry.
func (q *Query) Val(i int) (string, bool) { return q.rec.val(i) }

// OpAt returns the operator of the i'th entry.
func (q *Query) OpAt(i int) Op {
	if i < 0 || i >= len(q.rec.entries) {
		return Op{}
	}
	return q.rec.entries[i].op
}

func (m *Message) items() []entry { return m.rec.entries }
func (q *Query) items() []entry   { return q.rec.entries }

// equalEntries compares two records entry-by-key: same count, and every
// entry of a found in b with matching value presence and content.  When
// ops is set, operator bits must match as well.
func equalEntries(a, b []entry, ops bool) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		j := -1
		for k := range b {
			if b[k].key == a[i].key {
				j = k
				break
			}
		}
		if j < 0 {
			return false
		}

		av, bv := a[i].val, b[j].val
		if (av == nil) != (bv == nil) {
			return false
		}
		if av != nil && *av != *bv {
			return false
		}
		if ops && a[i].op.Bits() != b[j].op.Bits() {
			return false
		}
	}
	return true
}

// Equal reports whether two messages carry the same attributes.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return equalEntries(m.rec.entries, other.rec.entries, false)
}

// Equal reports whether two queries carry the same constraints.
func (q *Query) Equal(other *Query) bool {
	if q == nil || other == nil {
		return q == other
	}
	return equalEntries(q.rec.entries, other.rec.entries, true)
}

// copyMessage deep-copies a message.  A nil input yields a fresh default
// message skeleton.
func copyMessage(m *Message) *Message {
	if m == nil {
		return NewMessage()
	}
	dup := &Message{}
	dup.rec.entries = make([]entry, len(m.rec.entries))
	for i, e := range m.rec.entries {
		dup.rec.entries[i] = entry{key: e.key}
		if e.val != nil {
			v := *e.val
			dup.rec.entries[i].val = &v
		}
	}
	return dup
}
