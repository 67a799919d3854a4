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
	"net"
)

// ErrNoDaemon is returned when the daemon sink cannot be bound.
var ErrNoDaemon = errors.New("aslog: log daemon unavailable")

// DaemonSink is the IPC endpoint that accepts framed record blobs.  The
// shipped implementation is SocketSink; tests substitute their own via
// SetDaemonSink.
type DaemonSink interface {
	Send(blob []byte) error
	Rebind() error
	Close() error
}

// FrameRecord wraps serialized record text in the daemon wire framing: ten
// zero-padded ASCII decimal digits giving the text length, a space, the
// text, and a terminating NUL.
func FrameRecord(text string) []byte {
	b := make([]byte, 0, len(text)+12)
	b = append(b, fmt.Sprintf("%010d ", len(text))...)
	b = append(b, text...)
	b = append(b, 0)
	return b
}

// DefaultSocketPath is the default unix socket of the log daemon.
const DefaultSocketPath = "/var/run/aslog.sock"

// SocketSink ships framed blobs over a stream socket.  The connection is
// established lazily on first send and dropped on any write error; the
// caller decides whether to rebind and retry.  SocketSink is not
// internally synchronized; the package serializes access with its daemon
// lock.
type SocketSink struct {
	Network string
	Address string

	conn      net.Conn
	connected bool
}

// NewSocketSink returns a sink for the given endpoint.  Empty parameters
// select a unix-domain connection to DefaultSocketPath.
func NewSocketSink(network, address string) *SocketSink {
	if network == "" {
		network = "unix"
	}
	if address == "" {
		address = DefaultSocketPath
	}
	return &SocketSink{Network: network, Address: address}
}

func (s *SocketSink) String() string {
	return fmt.Sprintf("SocketSink(network=%s, address=%s)", s.Network, s.Address)
}

// Send writes one framed blob, connecting first if necessary.
func (s *SocketSink) Send(blob []byte) error {
	if !s.connected {
		if err := s.Rebind(); err != nil {
			return err
		}
	}

	_, err := s.conn.Write(blob)
	if err != nil {
		s.conn.Close()
		s.conn = nil
		s.connected = false
	}
	return err
}

// Rebind drops any existing connection and dials the endpoint again.
func (s *SocketSink) Rebind() error {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.connected = false
	}

	conn, err := net.Dial(s.Network, s.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDaemon, err)
	}
	s.conn = conn
	s.connected = true
	return nil
}

// Close shuts the connection down.
func (s *SocketSink) Close() error {
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}
