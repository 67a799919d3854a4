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
	"strings"
)

// ErrBadLevel is returned when a Level attribute value is neither a decimal
// digit nor a recognized level name.
var ErrBadLevel = errors.New("aslog: invalid level value")

// Level represents a message severity level.  Levels follow the syslog
// convention: lower values are more severe.
type Level int

// Severity levels, most to least severe.
const (
	Emergency Level = iota
	Alert
	Critical
	Error
	Warning
	Notice
	Info
	Debug
)

var levelStrings = [...]string{"EMERG", "ALERT", "CRIT", "ERR", "WARNING", "NOTICE", "INFO", "DEBUG"}

var levelNames = [...]string{"Emergency", "Alert", "Critical", "Error", "Warning", "Notice", "Info", "Debug"}

// String returns the all-caps name used by the "std" output format.
// Out-of-range levels return "Unknown".
func (l Level) String() string {
	if l < Emergency || l > Debug {
		return "Unknown"
	}
	return levelStrings[l]
}

// Name returns the mixed-case level name accepted as a Level attribute
// value.  Out-of-range levels return "Unknown".
func (l Level) Name() string {
	if l < Emergency || l > Debug {
		return "Unknown"
	}
	return levelNames[l]
}

// ParseLevel interprets s as a severity level.  It accepts a string with a
// leading decimal digit (clamped to the 0..7 range) or any level name,
// case-insensitively.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return 0, ErrBadLevel
	}

	if s[0] >= '0' && s[0] <= '9' {
		n := 0
		for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			n = n*10 + int(s[i]-'0')
			if n > int(Debug) {
				n = int(Debug)
				break
			}
		}
		return Level(n).clamp(), nil
	}

	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return 0, ErrBadLevel
}

func (l Level) clamp() Level {
	if l < Emergency {
		return Emergency
	}
	if l > Debug {
		return Debug
	}
	return l
}

// digit returns the single ASCII digit stored for the level in a record's
// Level attribute.
func (l Level) digit() string {
	return string([]byte{byte('0' + l.clamp())})
}

// FilterMask returns the mask bit for a single level.
func FilterMask(l Level) uint32 {
	return 1 << uint(l.clamp())
}

// FilterMaskUpTo returns the mask covering level l and everything more
// severe.
func FilterMaskUpTo(l Level) uint32 {
	return (1 << uint(l.clamp()+1)) - 1
}
