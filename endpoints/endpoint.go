// Copyright (c) 2024 The DME Transfer Tool Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package endpoints

import (
	"regexp"
)

// Endpoint IDs are Globus UUIDs written as 8-4-4-4-12 hexadecimal groups.
var idPattern = regexp.MustCompile(
	`^[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}$`)

// default source and destination paths for a named endpoint
type Paths struct {
	Source string `json:"source"`
	Dest   string `json:"dest,omitempty"`
}

// This type describes a named (DME) endpoint listed in the endpoint data file.
type Descriptor struct {
	// index by which users refer to the endpoint on the command line
	Index int `json:"index"`
	// descriptive endpoint name
	Name string `json:"name"`
	// Globus endpoint (collection) UUID
	Id string `json:"id"`
	// default paths used when the endpoint is a source or a destination
	Paths Paths `json:"paths"`
	// 1 if DME users may write beneath the default destination path, 0 if not
	Writable int `json:"writable"`
}

// returns true if transfers may be written beneath the endpoint's default
// destination path
func (d Descriptor) IsWritable() bool {
	return d.Writable == 1
}

// returns true if the given string is a well-formed endpoint ID
func IsValidId(id string) bool {
	return idPattern.MatchString(id)
}
