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
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// ErrClosed is returned when a client handle is used after Close.
var ErrClosed = errors.New("aslog: client is closed")

// Option is a set of client behavior flags.
type Option uint32

// Client options.
const (
	// OptStdErr adds a standard-error sink at open.
	OptStdErr Option = 1 << iota

	// OptNoDelay is accepted for compatibility.  The client does not act
	// on it and does not pass it to the daemon; behavior is unchanged.
	OptNoDelay

	// OptNoRemote disables transmission to the log daemon.
	OptNoRemote

	// OptMessageID stamps outgoing records with a unique ASLMessageID
	// when the caller hasn't supplied one.
	OptMessageID
)

// output is one local sink: a file descriptor plus its format selectors.
// An fd of -1 marks a sink that failed and was taken out of service.
type output struct {
	fd   int
	mfmt string
	tfmt string
	enc  Encoding
}

// Client is a logging client handle.  A nil *Client is valid in every
// method and refers to a lazily-created process-wide default client whose
// operations are serialized internally.  Non-default clients are not
// internally synchronized; concurrent use of one handle is the caller's
// responsibility.
type Client struct {
	options  Option
	ident    string
	facility string
	filter   uint32
	outputs  []output

	pid int
	uid int
	gid int

	closed bool
}

// Open returns a new client handle.  ident defaults to the executable
// name and facility to "user".  Unless OptNoRemote is set, the client
// participates in remote-control filtering and daemon delivery.
func Open(ident, facility string, opts Option) (*Client, error) {
	c := &Client{
		options: opts,
		filter:  FilterMaskUpTo(Notice),
		pid:     os.Getpid(),
		uid:     os.Getuid(),
		gid:     os.Getgid(),
	}

	if ident != "" {
		c.ident = ident
	} else {
		c.ident = processName()
	}

	if facility != "" {
		c.facility = facility
	} else {
		c.facility = FacilityName(FacUser)
	}

	global.acquireDaemon()
	if opts&OptNoRemote == 0 {
		global.notifyOpen(true)
	}

	if opts&OptStdErr != 0 {
		c.addOutput(2, FormatStd, TimeFormatLcl, EncodeSafe)
	}

	return c, nil
}

// Close releases the client's daemon-sink reference and notifier
// registrations and drops its local sinks.  The last closer tears down
// the daemon endpoint.  Close is idempotent; any other use of the handle
// afterward returns ErrClosed.
func (c *Client) Close() {
	if c == nil || c.closed {
		return
	}
	c.closed = true

	global.releaseDaemon()
	if c.options&OptNoRemote == 0 {
		global.notifyClose()
	}
	c.outputs = nil
}

// SetFilter replaces the client's severity mask and returns the previous
// one.  A nil client adjusts the process-wide default client.  A closed
// client is left untouched and its mask returned unchanged.
func (c *Client) SetFilter(mask uint32) uint32 {
	asl := c
	if asl == nil {
		var err error
		asl, err = getDefaultClient()
		if err != nil {
			return 0
		}
		global.stateLock.Lock()
		defer global.stateLock.Unlock()
	}
	if asl.closed {
		return asl.filter
	}

	last := asl.filter
	asl.filter = mask
	return last
}

// AddOutput adds a local sink on fd with the given message format, time
// format, and encoding.  If fd already has a sink, its configuration is
// updated in place.
func (c *Client) AddOutput(fd int, mfmt, tfmt string, enc Encoding) error {
	asl := c
	if asl == nil {
		var err error
		asl, err = getDefaultClient()
		if err != nil {
			return err
		}
		global.stateLock.Lock()
		defer global.stateLock.Unlock()
	}
	if asl.closed {
		return ErrClosed
	}

	asl.addOutput(fd, mfmt, tfmt, enc)
	return nil
}

func (c *Client) addOutput(fd int, mfmt, tfmt string, enc Encoding) {
	for i := range c.outputs {
		if c.outputs[i].fd == fd {
			c.outputs[i] = output{fd: fd, mfmt: mfmt, tfmt: tfmt, enc: enc}
			return
		}
	}
	c.outputs = append(c.outputs, output{fd: fd, mfmt: mfmt, tfmt: tfmt, enc: enc})
}

// AddLogFile adds a sink on fd with the standard human-readable settings:
// "std" format, local time, safe encoding.
func (c *Client) AddLogFile(fd int) error {
	return c.AddOutput(fd, FormatStd, TimeFormatLcl, EncodeSafe)
}

// RemoveOutput removes the sink on fd, if any.
func (c *Client) RemoveOutput(fd int) error {
	asl := c
	if asl == nil {
		var err error
		asl, err = getDefaultClient()
		if err != nil {
			return err
		}
		global.stateLock.Lock()
		defer global.stateLock.Unlock()
	}
	if asl.closed {
		return ErrClosed
	}

	for i := range asl.outputs {
		if asl.outputs[i].fd == fd {
			asl.outputs = append(asl.outputs[:i], asl.outputs[i+1:]...)
			break
		}
	}
	return nil
}

// Log sends text as a message at the given level, merging in the
// attributes of m when non-nil.
func (c *Client) Log(m *Message, level Level, text string) error {
	return c.send(m, level, text)
}

// Logf is Log with fmt.Sprintf formatting.
func (c *Client) Logf(m *Message, level Level, format string, values ...interface{}) error {
	return c.send(m, level, fmt.Sprintf(format, values...))
}

// Send ships a fully-assembled message.  The message's own Level
// attribute selects the severity; Debug is assumed when it is absent.
func (c *Client) Send(m *Message) error {
	return c.send(m, Debug, "")
}

// send is the outbound pipeline: resolve the effective filter, fill in
// default attributes on a copy, ship to the daemon sink, then fan out to
// local sinks.
func (c *Client) send(m *Message, level Level, text string) error {
	asl := c
	useGlobal := false
	if asl == nil {
		var err error
		asl, err = getDefaultClient()
		if err != nil {
			return err
		}
		useGlobal = true
	}
	if asl.closed {
		return ErrClosed
	}

	level = level.clamp()
	if m != nil {
		if v, ok := m.Get(KeyLevel); ok {
			if l, err := ParseLevel(v); err == nil {
				level = l
			}
		}
	}
	lmask := FilterMask(level)

	if asl.options&OptNoRemote == 0 {
		global.refreshFilters()
	}

	if useGlobal {
		global.stateLock.Lock()
	}
	filter := asl.filter
	if useGlobal {
		global.stateLock.Unlock()
	}
	rcActive := false
	master, proc := global.overrides()

	// master filter overrides the local mask
	if master != 0 {
		filter = master
		rcActive = true
	}

	// process-specific filter overrides local and master
	if proc != 0 {
		filter = proc
		rcActive = true
	}

	if filter&lmask == 0 {
		// suppressed; not an error
		return nil
	}

	tmp := copyMessage(m)
	if text != "" {
		if err := tmp.Set(KeyMsg, text); err != nil {
			return err
		}
	}
	tmp.Set(KeyLevel, level.digit())

	now := time.Now()
	fillDefault(tmp, KeyTime, strconv.FormatInt(now.Unix(), 10))
	fillDefault(tmp, KeyTimeNanoSec, strconv.Itoa(now.Nanosecond()))

	if _, ok := tmp.Get(KeyHost); !ok {
		if hname, err := os.Hostname(); err == nil {
			tmp.Set(KeyHost, hname)
		}
	}

	fillDefault(tmp, KeyPID, strconv.Itoa(asl.pid))
	fillDefault(tmp, KeyUID, strconv.Itoa(asl.uid))
	fillDefault(tmp, KeyGID, strconv.Itoa(asl.gid))

	if _, ok := tmp.Get(KeySender); !ok {
		switch {
		case asl.ident != "":
			tmp.Set(KeySender, asl.ident)
		case global.cachedSender() != "":
			tmp.Set(KeySender, global.cachedSender())
		default:
			tmp.Set(KeySender, "Unknown")
		}
	}

	if _, ok := tmp.Get(KeyFacility); !ok && asl.facility != "" {
		tmp.Set(KeyFacility, asl.facility)
	}

	if asl.options&OptMessageID != 0 {
		fillDefault(tmp, KeyMsgID, uuid.NewString())
	}

	if rcActive {
		if prev, ok := tmp.Get(KeyOption); ok {
			tmp.Set(KeyOption, optStore+" "+prev)
		} else {
			tmp.Set(KeyOption, optStore)
		}
	}

	if useGlobal {
		global.stateLock.Lock()
		defer global.stateLock.Unlock()
	}

	if asl.options&OptNoRemote == 0 {
		if raw := tmp.String(); raw != "" {
			// TODO: a daemon send failure is deliberately absent from the
			// return value while sink write errors below are reported.
			// Pinned by TestSendDaemonFailureNotReported; revisit if the
			// daemon contract ever grows delivery guarantees.
			_ = global.sendDaemon(FrameRecord(raw))
		}
	}

	var outstatus error
	for i := range asl.outputs {
		o := &asl.outputs[i]
		if o.fd < 0 {
			continue
		}

		out := FormatMessage(tmp, o.mfmt, o.tfmt, o.enc)
		if out == nil {
			continue
		}

		if err := writeFd(o.fd, out); err != nil {
			o.fd = -1
			if outstatus == nil {
				outstatus = err
			}
		}
	}

	return outstatus
}

// fillDefault sets key to val when the message lacks a value for it.
func fillDefault(m *Message, key, val string) {
	if _, ok := m.Get(key); !ok {
		m.Set(key, val)
	}
}

// writeFd writes the whole buffer to a raw file descriptor.  A partial
// write counts as a failure.
func writeFd(fd int, b []byte) error {
	n, err := unix.Write(fd, b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}
