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

package journal

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dme/dmexfer/dmetest"
)

// This runs setup, runs all tests, and does breakdown.
func TestMain(m *testing.M) {
	var status int
	setup()
	status = m.Run()
	breakdown()
	os.Exit(status)
}

// temporary testing directory
var TESTING_DIR string

// this function gets called at the beginning of a test session
func setup() {
	dmetest.EnableDebugLogging()

	log.Print("Creating testing directory...\n")
	var err error
	TESTING_DIR, err = os.MkdirTemp(os.TempDir(), "dme-journal-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err)
	}
}

// this function gets called after all tests have been run
func breakdown() {
	if TESTING_DIR != "" {
		log.Printf("Deleting testing directory %s...\n", TESTING_DIR)
		os.RemoveAll(TESTING_DIR)
	}
}

// returns a record for a transfer submitted at the given time
func newRecord(submittedAt time.Time) Record {
	return Record{
		TaskId:              uuid.New(),
		SourceEndpoint:      "11111111-1111-1111-1111-111111111111",
		SourcePath:          "/src/a",
		DestinationEndpoint: "22222222-2222-2222-2222-222222222222",
		DestinationPath:     "/dst/run1",
		Label:               "DME Transfer submitted on 2024-05-01",
		SubmittedAt:         submittedAt,
	}
}

func TestRecordAndFetchTransfer(t *testing.T) {
	assert := assert.New(t)

	j, err := Open(filepath.Join(TESTING_DIR, "record.db"))
	assert.Nil(err)

	record := newRecord(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	err = j.RecordTransfer(record)
	assert.Nil(err)

	record1, err := j.TransferRecord(record.TaskId)
	assert.Nil(err)
	assert.Equal(record.TaskId, record1.TaskId)
	assert.Equal(record.SourceEndpoint, record1.SourceEndpoint)
	assert.Equal(record.SourcePath, record1.SourcePath)
	assert.Equal(record.DestinationEndpoint, record1.DestinationEndpoint)
	assert.Equal(record.DestinationPath, record1.DestinationPath)
	assert.Equal(record.Label, record1.Label)
	assert.True(record.SubmittedAt.Equal(record1.SubmittedAt))

	// the same task can't be recorded twice
	err = j.RecordTransfer(record)
	var newErr *NewRecordError
	assert.True(errors.As(err, &newErr))

	_, err = j.TransferRecord(uuid.New())
	var notFound *RecordNotFoundError
	assert.True(errors.As(err, &notFound))

	assert.Nil(j.Close())
}

func TestRecordsAreOrderedBySubmissionTime(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(TESTING_DIR, "ordered.db")
	j, err := Open(path)
	assert.Nil(err)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	later := newRecord(base.Add(90 * time.Minute))
	earliest := newRecord(base)
	middle := newRecord(base.Add(1500 * time.Millisecond))
	for _, record := range []Record{later, earliest, middle} {
		assert.Nil(j.RecordTransfer(record))
	}
	assert.Nil(j.Close())

	// records survive reopening
	j, err = Open(path)
	assert.Nil(err)
	defer j.Close()
	records, err := j.Records()
	assert.Nil(err)
	assert.Equal(3, len(records))
	assert.Equal(earliest.TaskId, records[0].TaskId)
	assert.Equal(middle.TaskId, records[1].TaskId)
	assert.Equal(later.TaskId, records[2].TaskId)
}

func TestRecordWithoutTaskIdFails(t *testing.T) {
	assert := assert.New(t)

	j, err := Open(filepath.Join(TESTING_DIR, "invalid.db"))
	assert.Nil(err)
	defer j.Close()

	record := newRecord(time.Now())
	record.TaskId = uuid.Nil
	err = j.RecordTransfer(record)
	assert.IsType(&NewRecordError{}, err)

	// a missing submission time is filled in
	record = newRecord(time.Time{})
	assert.Nil(j.RecordTransfer(record))
	record1, err := j.TransferRecord(record.TaskId)
	assert.Nil(err)
	assert.False(record1.SubmittedAt.IsZero())

	records, err := j.Records()
	assert.Nil(err)
	assert.Equal(1, len(records))
}

func TestOpenInMissingDirectoryFails(t *testing.T) {
	assert := assert.New(t)
	_, err := Open(filepath.Join(TESTING_DIR, "no", "such", "dir", "journal.db"))
	assert.IsType(&CantOpenError{}, err)
}

func TestOpenReadOnly(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(TESTING_DIR, "readonly.db")

	// there's nothing to read yet
	_, err := OpenReadOnly(path)
	assert.IsType(&CantOpenError{}, err)

	j, err := Open(path)
	assert.Nil(err)
	record := newRecord(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	assert.Nil(j.RecordTransfer(record))
	assert.Nil(j.Close())

	// readers share the journal
	reader1, err := OpenReadOnly(path)
	assert.Nil(err)
	defer reader1.Close()
	reader2, err := OpenReadOnly(path)
	assert.Nil(err)
	defer reader2.Close()

	record1, err := reader1.TransferRecord(record.TaskId)
	assert.Nil(err)
	assert.Equal(record.DestinationPath, record1.DestinationPath)
	records, err := reader2.Records()
	assert.Nil(err)
	assert.Equal(1, len(records))
}
