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
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

// This is the DME transfer journal, which keeps a local record of every
// transfer submitted from this machine. Globus keeps the authoritative task
// history; the journal remembers where each task's data came from and went.

// a record storing all information relevant to a submitted transfer
type Record struct {
	// Globus task ID assigned to the transfer
	TaskId uuid.UUID `json:"task_id"`
	// source and destination endpoint IDs and paths
	SourceEndpoint      string `json:"source_endpoint"`
	SourcePath          string `json:"source_path"`
	DestinationEndpoint string `json:"destination_endpoint"`
	DestinationPath     string `json:"destination_path"`
	// label attached to the Globus task
	Label string `json:"label"`
	// time at which the transfer was submitted
	SubmittedAt time.Time `json:"submitted_at"`
}

// bucket names
var (
	transfersBucket = []byte("transfers") // time-ordered key -> record
	tasksBucket     = []byte("tasks")     // task ID -> time-ordered key
)

// fixed-width UTC timestamps sort lexicographically in time order
const keyTimeFormat = "2006-01-02T15:04:05.000000000Z"

// A Journal is an open transfer journal backed by a bbolt database file.
type Journal struct {
	db *bolt.DB
}

// opens the journal at the given path, creating it if it doesn't exist
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &CantOpenError{Path: path, Message: err.Error()}
	}

	// set up buckets for transfer records and their task index
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucketName := range [][]byte{transfersBucket, tasksBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucketName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, &CantOpenError{Path: path, Message: err.Error()}
	}
	log.Debugf("Opened transfer journal %s", path)
	return &Journal{db: db}, nil
}

// opens an existing journal for reading only, sharing it with other readers
func OpenReadOnly(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, &CantOpenError{Path: path, Message: err.Error()}
	}
	log.Debugf("Opened transfer journal %s (read-only)", path)
	return &Journal{db: db}, nil
}

// saves and closes the journal
func (j *Journal) Close() error {
	if err := j.db.Close(); err != nil {
		return &CantCloseError{Message: err.Error()}
	}
	return nil
}

// records a submitted transfer
func (j *Journal) RecordTransfer(record Record) error {
	if record.TaskId == uuid.Nil {
		return &NewRecordError{Id: record.TaskId, Message: "missing task ID"}
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now()
	}

	value, err := json.Marshal(&record)
	if err != nil {
		return &NewRecordError{Id: record.TaskId, Message: err.Error()}
	}
	taskKey := []byte(record.TaskId.String())
	key := []byte(record.SubmittedAt.UTC().Format(keyTimeFormat) + "/" + record.TaskId.String())

	err = j.db.Update(func(tx *bolt.Tx) error {
		tasks := tx.Bucket(tasksBucket)
		if tasks.Get(taskKey) != nil {
			return &NewRecordError{Id: record.TaskId, Message: "the task has already been recorded"}
		}
		if err := tx.Bucket(transfersBucket).Put(key, value); err != nil {
			return err
		}
		return tasks.Put(taskKey, key)
	})
	if err != nil {
		var recordErr *NewRecordError
		if errors.As(err, &recordErr) {
			return err
		}
		return &NewRecordError{Id: record.TaskId, Message: err.Error()}
	}
	return nil
}

// retrieves the record for the transfer with the given task ID
func (j *Journal) TransferRecord(taskId uuid.UUID) (Record, error) {
	var record Record
	err := j.db.View(func(tx *bolt.Tx) error {
		tasks, transfers := tx.Bucket(tasksBucket), tx.Bucket(transfersBucket)
		if tasks == nil || transfers == nil {
			return &RecordNotFoundError{Id: taskId}
		}
		key := tasks.Get([]byte(taskId.String()))
		if key == nil {
			return &RecordNotFoundError{Id: taskId}
		}
		value := transfers.Get(key)
		if value == nil {
			return &InvalidRecordError{Id: taskId, Message: "indexed record is missing"}
		}
		if err := json.Unmarshal(value, &record); err != nil {
			return &InvalidRecordError{Id: taskId, Message: err.Error()}
		}
		return nil
	})
	return record, err
}

// retrieves all transfer records in order of submission
func (j *Journal) Records() ([]Record, error) {
	records := make([]Record, 0)
	err := j.db.View(func(tx *bolt.Tx) error {
		transfers := tx.Bucket(transfersBucket)
		if transfers == nil {
			return nil
		}
		return transfers.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return &InvalidRecordError{Message: errors.Wrapf(err, "record %s", k).Error()}
			}
			records = append(records, record)
			return nil
		})
	})
	return records, err
}
