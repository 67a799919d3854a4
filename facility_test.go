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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFacilityNumber(t *testing.T) {
	assert.Equal(t, FacUser, FacilityNumber("user"))
	assert.Equal(t, FacUser, FacilityNumber("USER"))
	assert.Equal(t, FacAuth, FacilityNumber("auth"))
	assert.Equal(t, FacAuth, FacilityNumber("security"))
	assert.Equal(t, FacLocal7, FacilityNumber("local7"))
	assert.Equal(t, FacLaunchd, FacilityNumber("launchd"))
	assert.Equal(t, -1, FacilityNumber("bogus"))
	assert.Equal(t, -1, FacilityNumber(""))
}

func TestFacilityName(t *testing.T) {
	assert.Equal(t, "user", FacilityName(FacUser))
	assert.Equal(t, "kern", FacilityName(FacKern))
	assert.Equal(t, "local0", FacilityName(FacLocal0))

	// "auth" wins over its "security" alias
	assert.Equal(t, "auth", FacilityName(FacAuth))

	assert.Equal(t, "", FacilityName(-1))
	assert.Equal(t, "", FacilityName(9999))
}
