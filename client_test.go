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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobziuchkovski/aslog"
	"github.com/bobziuchkovski/aslog/internal/asltest"
)

// resetGlobal restores pristine process-wide state between tests.
func resetGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		aslog.SetDaemonSink(nil)
		aslog.SetNotifier(nil)
		aslog.PostForkChild()
	})
	aslog.SetDaemonSink(nil)
	aslog.SetNotifier(nil)
	aslog.PostForkChild()
}

// unframe strips the daemon wire framing and returns the record text.
func unframe(t *testing.T, blob []byte) string {
	t.Helper()
	require.GreaterOrEqual(t, len(blob), 12, "blob too short to be framed")
	require.Equal(t, byte(' '), blob[10])
	require.Equal(t, byte(0), blob[len(blob)-1])
	return string(blob[11 : len(blob)-1])
}

func atoiOrFail(t *testing.T, s string) int {
	t.Helper()
	n := 0
	for i := 0; i < len(s); i++ {
		require.True(t, s[i] >= '0' && s[i] <= '9', "non-digit in length prefix: %q", s)
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func captureSend(t *testing.T) (*asltest.CapturingSink, *asltest.ScriptedNotifier, *aslog.Client) {
	t.Helper()
	resetGlobal(t)

	sink := asltest.NewCapturingSink()
	notifier := asltest.NewScriptedNotifier()
	aslog.SetDaemonSink(sink)
	aslog.SetNotifier(notifier)

	client, err := aslog.Open("testproc", "local0", 0)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return sink, notifier, client
}

func TestSendFramesRecord(t *testing.T) {
	sink, _, client := captureSend(t)

	require.NoError(t, client.Log(nil, aslog.Notice, "hello"))

	blobs := sink.Captured()
	require.Len(t, blobs, 1)

	blob := blobs[0]
	text := unframe(t, blob)
	assert.Len(t, text, atoiOrFail(t, string(blob[:10])))

	r, err := aslog.ParseRecord(text)
	require.NoError(t, err)
	m := r.(*aslog.Message)

	v, _ := m.Get(aslog.KeyMsg)
	assert.Equal(t, "hello", v)
}

func TestSendFillsDefaults(t *testing.T) {
	sink, _, client := captureSend(t)

	require.NoError(t, client.Log(nil, aslog.Warning, "defaults"))

	blobs := sink.Captured()
	require.Len(t, blobs, 1)

	r, err := aslog.ParseRecord(unframe(t, blobs[0]))
	require.NoError(t, err)
	m := r.(*aslog.Message)

	for _, k := range []string{aslog.KeyTime, aslog.KeyTimeNanoSec, aslog.KeyHost, aslog.KeyPID, aslog.KeyUID, aslog.KeyGID} {
		v, ok := m.Get(k)
		assert.True(t, ok, "missing default %s", k)
		assert.NotEmpty(t, v, "empty default %s", k)
	}

	v, _ := m.Get(aslog.KeyLevel)
	assert.Equal(t, "4", v)

	v, _ = m.Get(aslog.KeySender)
	assert.Equal(t, "testproc", v)

	v, _ = m.Get(aslog.KeyFacility)
	assert.Equal(t, "local0", v)
}

func TestSendPreservesCallerAttributes(t *testing.T) {
	sink, _, client := captureSend(t)

	m := aslog.NewMessage()
	require.NoError(t, m.Set(aslog.KeyHost, "elsewhere"))
	require.NoError(t, m.Set("Custom", "value"))

	require.NoError(t, client.Log(m, aslog.Notice, "x"))

	r, err := aslog.ParseRecord(unframe(t, sink.Captured()[0]))
	require.NoError(t, err)
	sent := r.(*aslog.Message)

	v, _ := sent.Get(aslog.KeyHost)
	assert.Equal(t, "elsewhere", v)
	v, _ = sent.Get("Custom")
	assert.Equal(t, "value", v)

	// the caller's record is not mutated by the send
	_, ok := m.Get(aslog.KeyPID)
	assert.False(t, ok)
}

func TestMessageLevelOverridesArgument(t *testing.T) {
	sink, _, client := captureSend(t)

	m := aslog.NewMessage()
	require.NoError(t, m.Set(aslog.KeyLevel, "1"))

	// Debug would be filtered; the record's own level wins
	require.NoError(t, client.Log(m, aslog.Debug, "urgent"))

	blobs := sink.Captured()
	require.Len(t, blobs, 1)

	r, _ := aslog.ParseRecord(unframe(t, blobs[0]))
	v, _ := r.(*aslog.Message).Get(aslog.KeyLevel)
	assert.Equal(t, "1", v)
}

func TestFilterSuppression(t *testing.T) {
	sink, _, client := captureSend(t)

	// default mask passes Notice and better
	require.NoError(t, client.Log(nil, aslog.Debug, "quiet"))
	assert.Empty(t, sink.Captured())

	require.NoError(t, client.Log(nil, aslog.Notice, "loud"))
	assert.Len(t, sink.Captured(), 1)

	prev := client.SetFilter(aslog.FilterMaskUpTo(aslog.Debug))
	assert.Equal(t, aslog.FilterMaskUpTo(aslog.Notice), prev)

	require.NoError(t, client.Log(nil, aslog.Debug, "now audible"))
	assert.Len(t, sink.Captured(), 2)

	client.SetFilter(0)
	require.NoError(t, client.Log(nil, aslog.Emergency, "masked out entirely"))
	assert.Len(t, sink.Captured(), 2)
}

func TestOverridePrecedence(t *testing.T) {
	sink, notifier, client := captureSend(t)

	// master override opens the mask up to Debug
	notifier.SetState(aslog.NotifyMasterName, uint64(aslog.FilterMaskUpTo(aslog.Debug)))
	require.NoError(t, client.Log(nil, aslog.Debug, "via master"))
	require.Len(t, sink.Captured(), 1)

	// process override narrows to Emergency only and beats the master
	notifier.SetState(aslog.ProcessFilterName(), uint64(aslog.FilterMask(aslog.Emergency)))
	require.NoError(t, client.Log(nil, aslog.Debug, "dropped"))
	assert.Len(t, sink.Captured(), 1)
	require.NoError(t, client.Log(nil, aslog.Emergency, "via process"))
	assert.Len(t, sink.Captured(), 2)

	// clearing both restores the local mask
	notifier.SetState(aslog.NotifyMasterName, 0)
	notifier.SetState(aslog.ProcessFilterName(), 0)
	require.NoError(t, client.Log(nil, aslog.Debug, "dropped again"))
	assert.Len(t, sink.Captured(), 2)
	require.NoError(t, client.Log(nil, aslog.Notice, "local mask"))
	assert.Len(t, sink.Captured(), 3)
}

func TestOverrideAnnotatesStoreOption(t *testing.T) {
	sink, notifier, client := captureSend(t)

	notifier.SetState(aslog.NotifyMasterName, uint64(aslog.FilterMaskUpTo(aslog.Debug)))
	require.NoError(t, client.Log(nil, aslog.Notice, "annotated"))

	r, err := aslog.ParseRecord(unframe(t, sink.Captured()[0]))
	require.NoError(t, err)
	v, ok := r.(*aslog.Message).Get(aslog.KeyOption)
	require.True(t, ok)
	assert.Equal(t, "store", v)
}

func TestOverridePrependsToExistingOption(t *testing.T) {
	sink, notifier, client := captureSend(t)

	notifier.SetState(aslog.NotifyMasterName, uint64(aslog.FilterMaskUpTo(aslog.Debug)))

	m := aslog.NewMessage()
	require.NoError(t, m.Set(aslog.KeyOption, "sensitive"))
	require.NoError(t, client.Log(m, aslog.Notice, "annotated"))

	r, err := aslog.ParseRecord(unframe(t, sink.Captured()[0]))
	require.NoError(t, err)
	v, _ := r.(*aslog.Message).Get(aslog.KeyOption)
	assert.Equal(t, "store sensitive", v)
}

func TestSendDaemonFailureNotReported(t *testing.T) {
	resetGlobal(t)

	sink := &asltest.CapturingSink{Fail: true}
	aslog.SetDaemonSink(sink)
	aslog.SetNotifier(asltest.NewScriptedNotifier())

	client, err := aslog.Open("testproc", "", 0)
	require.NoError(t, err)
	defer client.Close()

	// the daemon send fails and the rebind attempt fails too, but the call
	// still reports success
	assert.NoError(t, client.Log(nil, aslog.Notice, "lost"))
	assert.NotZero(t, sink.Binds())
}

func TestNoRemoteSkipsDaemon(t *testing.T) {
	resetGlobal(t)

	sink := asltest.NewCapturingSink()
	aslog.SetDaemonSink(sink)

	client, err := aslog.Open("testproc", "", aslog.OptNoRemote)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Log(nil, aslog.Notice, "local only"))
	assert.Empty(t, sink.Captured())
}

func TestLocalSinkWrite(t *testing.T) {
	resetGlobal(t)

	client, err := aslog.Open("testproc", "", aslog.OptNoRemote)
	require.NoError(t, err)
	defer client.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, client.AddOutput(int(w.Fd()), aslog.FormatMsg, aslog.TimeFormatSec, aslog.EncodeNone))
	require.NoError(t, client.Log(nil, aslog.Notice, "to the pipe"))

	buf := make([]byte, 64)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "to the pipe\n", string(buf[:n]))
}

func TestOptMessageID(t *testing.T) {
	sink, _, _ := captureSend(t)

	client, err := aslog.Open("testproc", "", aslog.OptMessageID)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Log(nil, aslog.Notice, "with id"))

	r, err := aslog.ParseRecord(unframe(t, sink.Captured()[0]))
	require.NoError(t, err)
	v, ok := r.(*aslog.Message).Get(aslog.KeyMsgID)
	require.True(t, ok)
	assert.NotEmpty(t, v)

	// a caller-supplied id is preserved
	m := aslog.NewMessage()
	require.NoError(t, m.Set(aslog.KeyMsgID, "42"))
	require.NoError(t, client.Log(m, aslog.Notice, "keeps id"))

	r, err = aslog.ParseRecord(unframe(t, sink.Captured()[1]))
	require.NoError(t, err)
	v, _ = r.(*aslog.Message).Get(aslog.KeyMsgID)
	assert.Equal(t, "42", v)
}

func TestLogf(t *testing.T) {
	sink, _, client := captureSend(t)

	require.NoError(t, client.Logf(nil, aslog.Notice, "count=%d name=%s", 7, "x"))

	r, err := aslog.ParseRecord(unframe(t, sink.Captured()[0]))
	require.NoError(t, err)
	v, _ := r.(*aslog.Message).Get(aslog.KeyMsg)
	assert.Equal(t, "count=7 name=x", v)
}

func TestSendUsesMessageLevelDefaultDebug(t *testing.T) {
	sink, _, client := captureSend(t)

	// Send assumes Debug, which the default mask suppresses
	m := aslog.NewMessage()
	require.NoError(t, m.Set(aslog.KeyMsg, "quiet"))
	require.NoError(t, client.Send(m))
	assert.Empty(t, sink.Captured())

	require.NoError(t, m.Set(aslog.KeyLevel, "Notice"))
	require.NoError(t, client.Send(m))
	require.Len(t, sink.Captured(), 1)
}

func TestNilClientUsesDefault(t *testing.T) {
	sink, _, _ := captureSend(t)

	var nilClient *aslog.Client
	require.NoError(t, nilClient.Log(nil, aslog.Notice, "via default client"))

	blobs := sink.Captured()
	require.Len(t, blobs, 1)
	assert.True(t, strings.Contains(unframe(t, blobs[0]), "via\\sdefault\\sclient"))
}

func TestClosedClient(t *testing.T) {
	resetGlobal(t)

	client, err := aslog.Open("testproc", "", aslog.OptNoRemote)
	require.NoError(t, err)

	mask := client.SetFilter(aslog.FilterMaskUpTo(aslog.Debug))
	require.NotZero(t, mask)

	client.Close()

	assert.ErrorIs(t, client.Log(nil, aslog.Notice, "late"), aslog.ErrClosed)
	assert.ErrorIs(t, client.Send(aslog.NewMessage()), aslog.ErrClosed)
	assert.ErrorIs(t, client.AddOutput(2, aslog.FormatStd, aslog.TimeFormatLcl, aslog.EncodeSafe), aslog.ErrClosed)
	assert.ErrorIs(t, client.AddLogFile(2), aslog.ErrClosed)
	assert.ErrorIs(t, client.RemoveOutput(2), aslog.ErrClosed)

	// the mask is left untouched after close
	assert.Equal(t, aslog.FilterMaskUpTo(aslog.Debug), client.SetFilter(0))
	assert.Equal(t, aslog.FilterMaskUpTo(aslog.Debug), client.SetFilter(0))

	// closing again is a no-op
	client.Close()
}

func TestLastCloseReleasesDaemonSink(t *testing.T) {
	resetGlobal(t)

	sink := asltest.NewCapturingSink()
	aslog.SetDaemonSink(sink)

	c1, err := aslog.Open("one", "", 0)
	require.NoError(t, err)
	c2, err := aslog.Open("two", "", 0)
	require.NoError(t, err)

	c1.Close()
	assert.False(t, sink.Closed(), "sink should stay bound while a client remains")

	// a double close must not release the remaining reference
	c1.Close()
	assert.False(t, sink.Closed())

	c2.Close()
	assert.True(t, sink.Closed(), "last close should tear the sink down")
}
