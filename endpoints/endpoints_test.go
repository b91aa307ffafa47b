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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testCatalog = `[
  {"index": 1, "name": "DME Source", "id": "11111111-1111-1111-1111-111111111111",
   "paths": {"source": "/src/"}, "writable": 0},
  {"index": 2, "name": "DME Dest", "id": "22222222-2222-2222-2222-222222222222",
   "paths": {"source": "/pub/", "dest": "/dst/"}, "writable": 1}
]`

func TestIsValidId(t *testing.T) {
	assert := assert.New(t)
	for _, id := range []string{
		"11111111-1111-1111-1111-111111111111",
		"3ca64c67-9daf-11e9-855f-0e45b29ab6fa",
		"3CA64C67-9DAF-11E9-855F-0E45B29AB6FA",
	} {
		assert.True(IsValidId(id), id)
	}
	for _, id := range []string{
		"",
		"not-a-uuid",
		"3ca64c679daf11e9855f0e45b29ab6fa",
		"{3ca64c67-9daf-11e9-855f-0e45b29ab6fa}",
		"urn:uuid:3ca64c67-9daf-11e9-855f-0e45b29ab6fa",
		"3ca64c67-9daf-11e9-855f-0e45b29ab6fa ",
		"3ca64c67-9daf-11e9-855f-0e45b29ab6fg",
		"3ca64c6-79daf-11e9-855f-0e45b29ab6fa",
	} {
		assert.False(IsValidId(id), id)
	}
}

func TestParseAndLookup(t *testing.T) {
	assert := assert.New(t)
	catalog, err := Parse([]byte(testCatalog))
	assert.Nil(err)
	assert.Len(catalog, 2)

	d, err := catalog.Lookup(1)
	assert.Nil(err)
	assert.Equal("11111111-1111-1111-1111-111111111111", d.Id)
	assert.Equal("/src/", d.Paths.Source)
	assert.Equal("", d.Paths.Dest)
	assert.False(d.IsWritable())

	d, found := catalog.Find(2)
	assert.True(found)
	assert.True(d.IsWritable())
	assert.Equal("/dst/", d.Paths.Dest)

	_, found = catalog.Find(3)
	assert.False(found)
	_, err = catalog.Lookup(3)
	var notFound *NotFoundError
	assert.True(errors.As(err, &notFound))
	assert.Equal(3, notFound.Index)
	assert.Contains(err.Error(), "#3 not found")
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	assert := assert.New(t)
	_, err := Parse([]byte(`{"index": 1}`))
	assert.NotNil(err)

	_, err = Parse([]byte(`[{"index": 1, "id": "11111111-1111-1111-1111-111111111111"},
	                        {"index": 1, "id": "22222222-2222-2222-2222-222222222222"}]`))
	var invalid *InvalidDescriptorError
	assert.True(errors.As(err, &invalid))

	_, err = Parse([]byte(`[{"index": 4, "id": "nope"}]`))
	assert.True(errors.As(err, &invalid))
	assert.Equal(4, invalid.Index)

	_, err = Parse([]byte(`[{"index": 0, "id": "11111111-1111-1111-1111-111111111111"}]`))
	assert.True(errors.As(err, &invalid))
	assert.Contains(err.Error(), "positive")
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	// a missing file is an empty catalog
	catalog, err := Load(filepath.Join(dir, "dme_data.json"))
	assert.Nil(err)
	assert.Empty(catalog)
	_, err = catalog.Lookup(1)
	assert.NotNil(err)

	filename := filepath.Join(dir, "dme_data.json")
	assert.Nil(os.WriteFile(filename, []byte(testCatalog), 0644))
	catalog, err = Load(filename)
	assert.Nil(err)
	assert.Len(catalog, 2)
}

func TestPrint(t *testing.T) {
	assert := assert.New(t)
	catalog, _ := Parse([]byte(testCatalog))
	var out bytes.Buffer
	catalog.Print(&out)
	assert.Equal(`-- Endpoint #: 1
Name: DME Source
ID: 11111111-1111-1111-1111-111111111111
Default SOURCE path: /src/
Default DEST path: 
Writable: False

-- Endpoint #: 2
Name: DME Dest
ID: 22222222-2222-2222-2222-222222222222
Default SOURCE path: /pub/
Default DEST path: /dst/
Writable: True

`, out.String())
}
