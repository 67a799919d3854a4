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
	"os"
	"path/filepath"
	"sync"
)

// globalState is the process-wide singleton shared by every client.
//
// stateLock guards the notifier tokens, the override filter cache, the
// cached sender name, and the default client.  daemonLock guards the
// reference-counted daemon sink.  When both are needed, stateLock is taken
// first.
type globalState struct {
	stateLock  sync.Mutex
	daemonLock sync.Mutex

	notifyCount  int
	rcToken      Token
	masterToken  Token
	procToken    Token
	masterFilter uint32
	procFilter   uint32

	sinkRefs int
	sink     DaemonSink

	notifier      Notifier
	sender        string
	defaultClient *Client
}

var global = newGlobalState()

func newGlobalState() *globalState {
	return &globalState{
		rcToken:     noToken,
		masterToken: noToken,
		procToken:   noToken,
		notifier:    nullNotifier{},
	}
}

// SetNotifier installs the change notifier used to refresh the process and
// master filter overrides.  Existing registrations are re-established on
// the new notifier.
func SetNotifier(n Notifier) {
	global.stateLock.Lock()
	defer global.stateLock.Unlock()

	if n == nil {
		n = nullNotifier{}
	}
	global.notifier = n
	global.rcToken = noToken
	global.masterToken = noToken
	global.procToken = noToken
	global.masterFilter = 0
	global.procFilter = 0

	if global.notifyCount > 0 {
		global.registerTokens()
	}
}

// SetDaemonSink installs the daemon IPC endpoint.  Passing nil reverts to
// the default socket sink, bound lazily on the next send.
func SetDaemonSink(s DaemonSink) {
	global.daemonLock.Lock()
	defer global.daemonLock.Unlock()

	if global.sink != nil {
		global.sink.Close()
	}
	global.sink = s
}

// PostForkChild resets inherited process-wide state.  It must be called in
// a forked child before any other use of the package, while the child is
// still single-threaded.  No locks are taken.
func PostForkChild() {
	global.notifyCount = 0
	global.rcToken = noToken
	global.masterToken = noToken
	global.procToken = noToken
	global.masterFilter = 0
	global.procFilter = 0

	global.sinkRefs = 0
	global.sink = nil
	global.defaultClient = nil
}

// notifyOpen registers the remote-control tokens, counting openers.  The
// caller indicates whether stateLock must be taken.
func (g *globalState) notifyOpen(lock bool) {
	if lock {
		g.stateLock.Lock()
		defer g.stateLock.Unlock()
	}

	g.notifyCount++
	if g.procToken != noToken {
		return
	}
	g.registerTokens()
}

// registerTokens is called with stateLock held.
func (g *globalState) registerTokens() {
	if g.rcToken == noToken {
		if t, err := g.notifier.Register(NotifyRCName); err == nil {
			g.rcToken = t
		}
	}
	if g.masterToken == noToken {
		if t, err := g.notifier.Register(NotifyMasterName); err == nil {
			g.masterToken = t
		}
	}
	if t, err := g.notifier.Register(ProcessFilterName()); err == nil {
		g.procToken = t
	}
}

func (g *globalState) notifyClose() {
	g.stateLock.Lock()
	defer g.stateLock.Unlock()

	if g.notifyCount > 0 {
		g.notifyCount--
	}
	if g.notifyCount > 0 {
		return
	}

	g.rcToken = noToken
	g.masterToken = noToken
	g.procToken = noToken
}

// refreshFilters polls the notifier and reloads the override masks when
// anything changed.  Serialized by stateLock so concurrent senders don't
// reload twice.
func (g *globalState) refreshFilters() {
	g.stateLock.Lock()
	defer g.stateLock.Unlock()

	if g.rcToken == noToken {
		return
	}

	changed, err := g.notifier.Check(g.rcToken)
	if err != nil || !changed {
		return
	}

	if g.masterToken != noToken {
		if v, err := g.notifier.GetState(g.masterToken); err == nil {
			g.masterFilter = uint32(v)
		}
	}
	if g.procToken != noToken {
		if v, err := g.notifier.GetState(g.procToken); err == nil {
			g.procFilter = uint32(v)
		}
	}
}

// overrides returns the current master and process filter masks.
func (g *globalState) overrides() (master, proc uint32) {
	g.stateLock.Lock()
	defer g.stateLock.Unlock()
	return g.masterFilter, g.procFilter
}

// acquireDaemon takes a reference on the daemon sink handle.
func (g *globalState) acquireDaemon() {
	g.daemonLock.Lock()
	defer g.daemonLock.Unlock()
	g.sinkRefs++
}

// releaseDaemon drops a reference; the last release tears down the
// endpoint.
func (g *globalState) releaseDaemon() {
	g.daemonLock.Lock()
	defer g.daemonLock.Unlock()

	if g.sinkRefs > 0 {
		g.sinkRefs--
	}
	if g.sinkRefs == 0 && g.sink != nil {
		g.sink.Close()
		g.sink = nil
	}
}

// sendDaemon ships one framed blob, binding the sink lazily and retrying
// once after a rebind on failure.
func (g *globalState) sendDaemon(blob []byte) error {
	g.daemonLock.Lock()
	defer g.daemonLock.Unlock()

	if g.sink == nil {
		g.sink = NewSocketSink("", "")
	}

	err := g.sink.Send(blob)
	if err != nil {
		if rerr := g.sink.Rebind(); rerr == nil {
			err = g.sink.Send(blob)
		}
	}
	return err
}

// cachedSender returns the process-wide default sender name, derived once
// from the executable name.
func (g *globalState) cachedSender() string {
	g.stateLock.Lock()
	defer g.stateLock.Unlock()

	if g.sender == "" {
		g.sender = processName()
	}
	return g.sender
}

// processName returns the basename of argv[0], or "" when unavailable.
func processName() string {
	if len(os.Args) == 0 || os.Args[0] == "" {
		return ""
	}
	return filepath.Base(os.Args[0])
}

// getDefaultClient lazily constructs the client used when API calls are
// made with a nil client handle.  All operations on the default client are
// serialized by stateLock.
func getDefaultClient() (*Client, error) {
	global.stateLock.Lock()
	defer global.stateLock.Unlock()

	if global.defaultClient != nil {
		return global.defaultClient, nil
	}

	// Open with remote delivery disabled to avoid re-entering stateLock,
	// then restore the option and finish the notifier registration here.
	c, err := Open("", "", OptNoRemote)
	if err != nil {
		return nil, err
	}
	c.options &^= OptNoRemote
	global.notifyOpen(false)

	global.defaultClient = c
	return c, nil
}
