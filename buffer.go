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

import "sync"

// Rendering and encoding run on every send, so buffers are pooled.  The
// same pooling approach dropped per-send allocation cost by two orders of
// magnitude in the ancestor logging code this was adapted from.
var bufPool = sync.Pool{
	New: func() interface{} {
		return &buffer{bytes: make([]byte, 0, 256)}
	},
}

func getBuffer() *buffer {
	b := bufPool.Get().(*buffer)
	b.Reset()
	return b
}

func releaseBuffer(b *buffer) {
	bufPool.Put(b)
}

// buffer is a simple append-only byte buffer.
type buffer struct {
	bytes []byte
}

func (b *buffer) Append(p []byte) {
	b.bytes = append(b.bytes, p...)
}

func (b *buffer) AppendString(s string) {
	b.bytes = append(b.bytes, s...)
}

func (b *buffer) AppendByte(c byte) {
	b.bytes = append(b.bytes, c)
}

func (b *buffer) Bytes() []byte {
	return b.bytes
}

func (b *buffer) Len() int {
	return len(b.bytes)
}

func (b *buffer) Reset() {
	b.bytes = b.bytes[:0]
}

// take copies the contents out of the buffer so it may be released.
func (b *buffer) take() []byte {
	out := make([]byte, len(b.bytes))
	copy(out, b.bytes)
	return out
}
