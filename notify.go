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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrBadToken is returned for notification tokens this notifier did not
// issue.
var ErrBadToken = errors.New("aslog: invalid notification token")

// Token identifies one notification registration.
type Token int

const noToken Token = -1

// Notifier is the change-notification service used to detect updates to
// the remote-control filter masks.  Check reports whether any watched name
// changed since the last call for the token; GetState returns the value
// currently published under the token's name.
type Notifier interface {
	Register(name string) (Token, error)
	Check(t Token) (bool, error)
	GetState(t Token) (uint64, error)
	Close() error
}

// Notification names watched by the filter pipeline.  Controllers publish
// filter masks under these names; NotifyRCName flags that either mask may
// have changed.
const (
	NotifyRCName       = "aslog.remote.control"
	NotifyMasterName   = "aslog.filter.master"
	notifySystemPrefix = "aslog.filter.system"
)

// ProcessFilterName returns the per-process filter notification name:
// a system name when running as root, a per-user name otherwise.
func ProcessFilterName() string {
	euid := os.Geteuid()
	if euid == 0 {
		return fmt.Sprintf("%s.%d", notifySystemPrefix, os.Getpid())
	}
	return fmt.Sprintf("user.uid.%d.aslog.%d", euid, os.Getpid())
}

// nullNotifier is installed by default: nothing registers, nothing
// changes, so only the local filter mask applies.
type nullNotifier struct{}

func (nullNotifier) Register(string) (Token, error) {
	return noToken, errors.New("aslog: no notifier")
}

func (nullNotifier) Check(Token) (bool, error) { return false, nil }

func (nullNotifier) GetState(Token) (uint64, error) { return 0, nil }

func (nullNotifier) Close() error { return nil }

// FileNotifier implements Notifier over a state file watched with
// fsnotify.  The file holds one "name value" pair per line, values in
// decimal.  Any write to the file advances the notifier generation, which
// Check reports once per token.
type FileNotifier struct {
	path    string
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	gen    uint64
	tokens []fileRegistration
	closed bool
}

type fileRegistration struct {
	name string
	seen uint64
}

// NewFileNotifier watches path for filter state changes.  The parent
// directory must exist; the file itself may appear later.
func NewFileNotifier(path string) (*FileNotifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	n := &FileNotifier{path: abs, watcher: w}
	go n.watch()
	return n, nil
}

func (n *FileNotifier) watch() {
	for {
		select {
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != n.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				n.mu.Lock()
				n.gen++
				n.mu.Unlock()
			}
		case _, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Register issues a token for name.  The token initially reads as changed
// so the first Check triggers a state load.
func (n *FileNotifier) Register(name string) (Token, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return noToken, ErrBadToken
	}
	n.tokens = append(n.tokens, fileRegistration{name: name, seen: ^uint64(0)})
	return Token(len(n.tokens) - 1), nil
}

// Check reports whether the state file changed since the last Check for
// this token.
func (n *FileNotifier) Check(t Token) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t < 0 || int(t) >= len(n.tokens) {
		return false, ErrBadToken
	}

	changed := n.tokens[t].seen != n.gen
	n.tokens[t].seen = n.gen
	return changed, nil
}

// GetState returns the value published under the token's name, or zero
// when the file or the name is absent.
func (n *FileNotifier) GetState(t Token) (uint64, error) {
	n.mu.Lock()
	if t < 0 || int(t) >= len(n.tokens) {
		n.mu.Unlock()
		return 0, ErrBadToken
	}
	name := n.tokens[t].name
	n.mu.Unlock()

	data, err := os.ReadFile(n.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := bytes.Fields(sc.Bytes())
		if len(fields) != 2 || string(fields[0]) != name {
			continue
		}
		v, err := strconv.ParseUint(string(fields[1]), 10, 64)
		if err != nil {
			return 0, nil
		}
		return v, nil
	}
	return 0, nil
}

// Close stops the watcher.  Register fails with ErrBadToken afterwards;
// tokens issued before Close are still accepted by Check and GetState, but
// no further file changes are reported.
func (n *FileNotifier) Close() error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	return n.watcher.Close()
}
