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

/*
Package aslog is the client half of a structured system-logging facility.

Processes use it to assemble keyed log records, filter them by severity,
and ship them to a logging daemon over an IPC sink.  Records may also be
rendered locally to any number of file descriptors, each with its own
output format, time format, and character encoding.

Overview

A log record is an ordered list of key/value attributes.  Message records
carry concrete values; Query records additionally carry a comparison
operator per attribute and are evaluated against messages with Cmp or
QueryMatches.  Both forms serialize to a canonical bracketed text form that
round-trips exactly:

	[Time 1095789191] [Host a.b] [Sender x] [Message hi]
	Q [CN<= Level 3] [S= Message quick]

The typical client looks like this:

	client, err := aslog.Open("myapp", "local0", aslog.OptStdErr)
	if err != nil {
		// ...
	}
	defer client.Close()

	client.Log(nil, aslog.Notice, "service started")

	m := aslog.NewMessage()
	m.Set(aslog.KeyMsg, "checkpoint written")
	m.Set("Checkpoint", "42")
	client.Send(m)

Filtering

Each client holds a severity mask, defaulting to Notice and more severe.
A process-wide filter and a system-wide master filter, distributed through
a change notifier, override the local mask when set.  Records suppressed by
the effective mask are dropped without error.

The daemon sink, the notifier, and the message store used by Search are
interfaces.  The shipped SocketSink and FileNotifier implementations cover
the common case; tests and embedders may substitute their own.
*/
package aslog
