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

package aslog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobziuchkovski/aslog"
	"github.com/bobziuchkovski/aslog/internal/asltest"
)

// waitChanged polls Check until it reports a change or the deadline
// expires.
func waitChanged(t *testing.T, n *aslog.FileNotifier, tok aslog.Token) bool {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		changed, err := n.Check(tok)
		require.NoError(t, err)
		if changed {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestFileNotifier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filters")

	n, err := aslog.NewFileNotifier(path)
	require.NoError(t, err)
	defer n.Close()

	tok, err := n.Register(aslog.NotifyMasterName)
	require.NoError(t, err)

	// a fresh registration reads as changed once
	changed, err := n.Check(tok)
	require.NoError(t, err)
	assert.True(t, changed)

	// quiescent: no further change reported
	changed, err = n.Check(tok)
	require.NoError(t, err)
	assert.False(t, changed)

	// file appears with a state value
	require.NoError(t, os.WriteFile(path, []byte(aslog.NotifyMasterName+" 255\nother 7\n"), 0644))
	assert.True(t, waitChanged(t, n, tok), "file write should surface as a change")

	v, err := n.GetState(tok)
	require.NoError(t, err)
	assert.Equal(t, uint64(255), v)
}

func TestFileNotifierAbsentState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filters")

	n, err := aslog.NewFileNotifier(path)
	require.NoError(t, err)
	defer n.Close()

	tok, err := n.Register("missing.name")
	require.NoError(t, err)

	// missing file reads as zero state
	v, err := n.GetState(tok)
	require.NoError(t, err)
	assert.Zero(t, v)

	// present file without the name also reads as zero
	require.NoError(t, os.WriteFile(path, []byte("something.else 9\n"), 0644))
	v, err = n.GetState(tok)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestFileNotifierBadToken(t *testing.T) {
	n, err := aslog.NewFileNotifier(filepath.Join(t.TempDir(), "filters"))
	require.NoError(t, err)
	defer n.Close()

	_, err = n.Check(aslog.Token(99))
	assert.ErrorIs(t, err, aslog.ErrBadToken)
	_, err = n.GetState(aslog.Token(-1))
	assert.ErrorIs(t, err, aslog.ErrBadToken)
}

func TestFileNotifierDrivesOverrides(t *testing.T) {
	resetGlobal(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "filters")
	n, err := aslog.NewFileNotifier(path)
	require.NoError(t, err)
	defer n.Close()

	sink := asltest.NewCapturingSink()
	aslog.SetDaemonSink(sink)
	aslog.SetNotifier(n)

	client, err := aslog.Open("testproc", "", 0)
	require.NoError(t, err)
	defer client.Close()

	// publish a master filter opening the mask to Debug, then wait for
	// the change to land
	state := aslog.NotifyMasterName + " 255\n"
	require.NoError(t, os.WriteFile(path, []byte(state), 0644))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, client.Log(nil, aslog.Debug, "probe"))
		if len(sink.Captured()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotEmpty(t, sink.Captured(), "master override never took effect")

	r, err := aslog.ParseRecord(unframe(t, sink.Captured()[0]))
	require.NoError(t, err)
	v, ok := r.(*aslog.Message).Get(aslog.KeyOption)
	require.True(t, ok)
	assert.Equal(t, "store", v)
}

func TestProcessFilterName(t *testing.T) {
	name := aslog.ProcessFilterName()
	assert.NotEmpty(t, name)
	assert.Contains(t, name, "aslog")
}
