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

// Package asltest provides test doubles for the aslog external
// collaborators: a capturing daemon sink, a deterministically-scripted
// notifier, and an in-memory message store.
package asltest

import (
	"errors"
	"sync"

	"github.com/bobziuchkovski/aslog"
)

// CapturingSink is an aslog.DaemonSink that captures framed blobs for
// later inspection.  With Fail set, Send and Rebind return errors so the
// retry path can be exercised.
type CapturingSink struct {
	Fail bool

	mu     sync.Mutex
	blobs  [][]byte
	binds  int
	closed bool
}

// NewCapturingSink returns a new CapturingSink instance.
func NewCapturingSink() *CapturingSink {
	return &CapturingSink{}
}

// Send captures the blob, or fails if Fail is set.
func (s *CapturingSink) Send(blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return errors.New("asltest: send failed")
	}
	dup := make([]byte, len(blob))
	copy(dup, blob)
	s.blobs = append(s.blobs, dup)
	return nil
}

// Rebind counts the rebind attempt, and fails if Fail is set.
func (s *CapturingSink) Rebind() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.binds++
	if s.Fail {
		return errors.New("asltest: rebind failed")
	}
	return nil
}

// Close marks the sink closed.
func (s *CapturingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Captured returns a copy of the captured blobs.
func (s *CapturingSink) Captured() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := make([][]byte, len(s.blobs))
	copy(dup, s.blobs)
	return dup
}

// Binds returns the number of Rebind calls.
func (s *CapturingSink) Binds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binds
}

// Closed reports whether Close was called.
func (s *CapturingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ScriptedNotifier is an aslog.Notifier that advances deterministically
// under test control: SetState publishes a value and arms the next Check.
type ScriptedNotifier struct {
	mu      sync.Mutex
	names   []string
	state   map[string]uint64
	changed bool
}

// NewScriptedNotifier returns a new ScriptedNotifier instance.
func NewScriptedNotifier() *ScriptedNotifier {
	return &ScriptedNotifier{state: make(map[string]uint64)}
}

// Register issues a token for name.
func (n *ScriptedNotifier) Register(name string) (aslog.Token, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names = append(n.names, name)
	return aslog.Token(len(n.names) - 1), nil
}

// Check reports (and consumes) the change flag armed by SetState.
func (n *ScriptedNotifier) Check(t aslog.Token) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t < 0 || int(t) >= len(n.names) {
		return false, aslog.ErrBadToken
	}
	c := n.changed
	n.changed = false
	return c, nil
}

// GetState returns the value published under the token's name.
func (n *ScriptedNotifier) GetState(t aslog.Token) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t < 0 || int(t) >= len(n.names) {
		return 0, aslog.ErrBadToken
	}
	return n.state[n.names[t]], nil
}

// Close implements aslog.Notifier.
func (n *ScriptedNotifier) Close() error { return nil }

// SetState publishes a value and flags the change for the next Check.
func (n *ScriptedNotifier) SetState(name string, v uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state[name] = v
	n.changed = true
}

// MemStore is an in-memory aslog.MessageStore evaluating queries with the
// match engine.  LastStartID records the start id of the most recent
// Match call.
type MemStore struct {
	Msgs        []*aslog.Message
	LastStartID uint64
}

// Match implements aslog.MessageStore.
func (s *MemStore) Match(q *aslog.Query, startID uint64) ([]*aslog.Message, error) {
	s.LastStartID = startID
	var out []*aslog.Message
	for _, m := range s.Msgs {
		if !aslog.QueryMatches(q, m) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
