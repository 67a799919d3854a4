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

// Standard attribute keys.  Keys are case-sensitive; the formatter and the
// send pipeline recognize these by name.
const (
	KeyTime        = "Time"
	KeyTimeNanoSec = "TimeNanoSec"
	KeyHost        = "Host"
	KeySender      = "Sender"
	KeyPID         = "PID"
	KeyUID         = "UID"
	KeyGID         = "GID"
	KeyLevel       = "Level"
	KeyMsg         = "Message"
	KeyFacility    = "Facility"
	KeyRefProc     = "RefProc"
	KeyRefPID      = "RefPID"
	KeyMsgID       = "ASLMessageID"
	KeyOption      = "ASLOption"
)

// optStore is prepended to the ASLOption attribute when a remote-control
// filter override is active for the send.
const optStore = "store"
