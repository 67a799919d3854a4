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
)

// ErrNoQuery is returned when Search is called without a query.
var ErrNoQuery = errors.New("aslog: nil search query")

// MessageStore is the external store Search runs queries against.  Match
// returns messages satisfying q with an ASLMessageID of at least startID.
type MessageStore interface {
	Match(q *Query, startID uint64) ([]*Message, error)
}

// ResultSet iterates over search results.  It is finite and not
// restartable.
type ResultSet struct {
	msgs []*Message
	curr int
}

// Next returns the next result, or nil when the set is exhausted.
func (r *ResultSet) Next() *Message {
	if r == nil || r.curr >= len(r.msgs) {
		return nil
	}
	m := r.msgs[r.curr]
	r.curr++
	return m
}

// Count returns the total number of results in the set.
func (r *ResultSet) Count() int {
	if r == nil {
		return 0
	}
	return len(r.msgs)
}

// Search evaluates q against the store.  A constraint of the form
// "ASLMessageID > n" or ">= n" seeds the store's start id so indexed
// stores can skip ahead.
func Search(store MessageStore, q *Query) (*ResultSet, error) {
	if q == nil {
		return nil, ErrNoQuery
	}

	var startID uint64
	for i := range q.rec.entries {
		e := &q.rec.entries[i]
		if e.key != KeyMsgID || e.val == nil {
			continue
		}
		if e.op.Rel != RelGreater && e.op.Rel != RelGreaterEqual {
			continue
		}
		n, err := strconv.ParseUint(*e.val, 10, 64)
		if err != nil {
			continue
		}
		if e.op.Rel == RelGreater {
			n++
		}
		startID = n
		break
	}

	msgs, err := store.Match(q, startID)
	if err != nil {
		return nil, err
	}
	return &ResultSet{msgs: msgs}, nil
}
