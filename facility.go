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

import "strings"

// Syslog facility codes.
const (
	FacKern       = 0 << 3
	FacUser       = 1 << 3
	FacMail       = 2 << 3
	FacDaemon     = 3 << 3
	FacAuth       = 4 << 3
	FacSyslog     = 5 << 3
	FacLPR        = 6 << 3
	FacNews       = 7 << 3
	FacUUCP       = 8 << 3
	FacCron       = 9 << 3
	FacAuthPriv   = 10 << 3
	FacFTP        = 11 << 3
	FacNetInfo    = 12 << 3
	FacRemoteAuth = 13 << 3
	FacInstall    = 14 << 3
	FacLocal0     = 16 << 3
	FacLocal1     = 17 << 3
	FacLocal2     = 18 << 3
	FacLocal3     = 19 << 3
	FacLocal4     = 20 << 3
	FacLocal5     = 21 << 3
	FacLocal6     = 22 << 3
	FacLocal7     = 23 << 3
	FacLaunchd    = 24 << 3
)

// Order matters: "security" is an alias for FacAuth and must come after
// "auth" so number-to-name lookups return the primary name.
var facilities = []struct {
	name string
	num  int
}{
	{"auth", FacAuth},
	{"authpriv", FacAuthPriv},
	{"cron", FacCron},
	{"daemon", FacDaemon},
	{"ftp", FacFTP},
	{"install", FacInstall},
	{"kern", FacKern},
	{"lpr", FacLPR},
	{"mail", FacMail},
	{"netinfo", FacNetInfo},
	{"remoteauth", FacRemoteAuth},
	{"news", FacNews},
	{"security", FacAuth},
	{"syslog", FacSyslog},
	{"user", FacUser},
	{"uucp", FacUUCP},
	{"local0", FacLocal0},
	{"local1", FacLocal1},
	{"local2", FacLocal2},
	{"local3", FacLocal3},
	{"local4", FacLocal4},
	{"local5", FacLocal5},
	{"local6", FacLocal6},
	{"local7", FacLocal7},
	{"launchd", FacLaunchd},
}

// FacilityNumber returns the facility code for a case-insensitive facility
// name, or -1 if the name is not recognized.
func FacilityNumber(name string) int {
	for _, f := range facilities {
		if strings.EqualFold(f.name, name) {
			return f.num
		}
	}
	return -1
}

// FacilityName returns the canonical name for a facility code, or "" if the
// code is not recognized.
func FacilityName(num int) string {
	if num < 0 {
		return ""
	}
	for _, f := range facilities {
		if f.num == num {
			return f.name
		}
	}
	return ""
}
