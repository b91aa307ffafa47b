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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Catalog holds the named endpoints read from the endpoint data file. It is
// read once per invocation and never modified.
type Catalog []Descriptor

// Load reads the named endpoints from the given JSON file. A missing file
// yields an empty catalog, in which every lookup fails.
func Load(filename string) (Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Endpoint data file %s not found", filename)
			return Catalog{}, nil
		}
		return nil, errors.Wrapf(err, "couldn't read endpoint data file %s", filename)
	}
	return Parse(data)
}

// Parse decodes and checks a JSON array of endpoint descriptors.
func Parse(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(err, "couldn't parse endpoint data")
	}

	seen := make(map[int]bool)
	for _, d := range catalog {
		if d.Index < 1 {
			return nil, &InvalidDescriptorError{
				Index:   d.Index,
				Message: "index must be a positive integer",
			}
		}
		if seen[d.Index] {
			return nil, &InvalidDescriptorError{
				Index:   d.Index,
				Message: "index appears more than once",
			}
		}
		seen[d.Index] = true
		if !IsValidId(d.Id) {
			return nil, &InvalidDescriptorError{
				Index:   d.Index,
				Message: fmt.Sprintf("'%s' is not a valid endpoint ID", d.Id),
			}
		}
	}
	return catalog, nil
}

// Find returns the descriptor with the given index, if any.
func (c Catalog) Find(index int) (Descriptor, bool) {
	for _, d := range c {
		if d.Index == index {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Lookup is like Find, but reports a missing index with a NotFoundError.
func (c Catalog) Lookup(index int) (Descriptor, error) {
	d, found := c.Find(index)
	if !found {
		return Descriptor{}, &NotFoundError{Index: index}
	}
	return d, nil
}

// Print writes a human-readable listing of the catalog.
func (c Catalog) Print(w io.Writer) {
	for _, d := range c {
		fmt.Fprintf(w, "-- Endpoint #: %d\n", d.Index)
		fmt.Fprintf(w, "Name: %s\n", d.Name)
		fmt.Fprintf(w, "ID: %s\n", d.Id)
		fmt.Fprintf(w, "Default SOURCE path: %s\n", d.Paths.Source)
		fmt.Fprintf(w, "Default DEST path: %s\n", d.Paths.Dest)
		if d.IsWritable() {
			fmt.Fprint(w, "Writable: True\n\n")
		} else {
			fmt.Fprint(w, "Writable: False\n\n")
		}
	}
}
