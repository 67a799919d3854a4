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
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrBadTime is returned when a time string matches none of the accepted
// forms.
var ErrBadTime = errors.New("aslog: unparseable time value")

// Accepted time string forms:
//
//	canonical   YYYY.MM.DD hh:mm:ss UTC
//	ctime       Mth dd hh:mm:ss        (current year assumed)
//	absolute    seconds since the epoch, optional 's' suffix
//	relative    +/- offset from now with optional s/m/h/d/w unit
var (
	canonTimeRex    = regexp.MustCompile(`(?i)^[0-9][0-9][0-9][0-9].[01]?[0-9].[0-3]?[0-9][ ]+[0-2]?[0-9]:[0-5][0-9]:[0-5][0-9][ ]+UTC$`)
	ctimeRex        = regexp.MustCompile(`(?i)^[adfjmnos][aceopu][bcglnprtvy][ ]+[0-3]?[0-9][ ]+[0-2]?[0-9]:[0-5][0-9]:[0-5][0-9]$`)
	absoluteTimeRex = regexp.MustCompile(`(?i)^[0-9]+s?$`)
	relativeTimeRex = regexp.MustCompile(`(?i)^[+-][0-9]+[smhdw]?$`)
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 604800
)

var monthNums = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseTime converts a time string in any of the accepted forms to seconds
// since the epoch.
func ParseTime(in string) (int64, error) {
	switch {
	case absoluteTimeRex.MatchString(in):
		s := strings.TrimRight(in, "sS")
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, ErrBadTime
		}
		return n, nil

	case relativeTimeRex.MatchString(in):
		factor := int64(1)
		s := in
		switch s[len(s)-1] {
		case 's', 'S':
			s = s[:len(s)-1]
		case 'm', 'M':
			s = s[:len(s)-1]
			factor = secondsPerMinute
		case 'h', 'H':
			s = s[:len(s)-1]
			factor = secondsPerHour
		case 'd', 'D':
			s = s[:len(s)-1]
			factor = secondsPerDay
		case 'w', 'W':
			s = s[:len(s)-1]
			factor = secondsPerWeek
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, ErrBadTime
		}
		return time.Now().Unix() + factor*n, nil

	case canonTimeRex.MatchString(in):
		f := strings.FieldsFunc(in, func(r rune) bool {
			return r == '.' || r == ' ' || r == ':'
		})
		// year, month, day, hour, minute, second, "UTC"
		if len(f) != 7 {
			return 0, ErrBadTime
		}
		var n [6]int
		for i := 0; i < 6; i++ {
			v, err := strconv.Atoi(f[i])
			if err != nil {
				return 0, ErrBadTime
			}
			n[i] = v
		}
		t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, time.UTC)
		return t.Unix(), nil

	case ctimeRex.MatchString(in):
		mon, ok := monthNums[strings.ToLower(in[:3])]
		if !ok {
			return 0, ErrBadTime
		}
		f := strings.FieldsFunc(in[3:], func(r rune) bool {
			return r == ' ' || r == ':'
		})
		if len(f) != 4 {
			return 0, ErrBadTime
		}
		var n [4]int
		for i := range f {
			v, err := strconv.Atoi(f[i])
			if err != nil {
				return 0, ErrBadTime
			}
			n[i] = v
		}
		year := time.Now().UTC().Year()
		t := time.Date(year, mon, n[0], n[1], n[2], n[3], 0, time.Local)
		return t.Unix(), nil
	}

	return 0, ErrBadTime
}
