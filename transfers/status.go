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

package transfers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dme/dmexfer/endpoints"
	"github.com/dme/dmexfer/globus"
	"github.com/dme/dmexfer/journal"
)

// anything that can fetch a Globus task record
type TaskGetter interface {
	GetTask(ctx context.Context, taskId string) (globus.Task, error)
}

// Status fetches the task with the given ID and prints its record as
// indented JSON, without interpreting it.
func Status(ctx context.Context, tasks TaskGetter, taskId string, out io.Writer) error {
	if !endpoints.IsValidId(taskId) {
		return &InvalidTaskIdError{Id: taskId}
	}
	task, err := tasks.GetTask(ctx, taskId)
	if err != nil {
		return &TaskStatusError{Id: taskId, Message: apiMessage(err)}
	}

	var buf bytes.Buffer
	if err = json.Indent(&buf, task.Raw, "", "  "); err != nil {
		return &TaskStatusError{Id: taskId, Message: err.Error()}
	}
	fmt.Fprintln(out, buf.String())
	return nil
}

// JournalEntry looks up the local record of the task with the given ID. The
// journal is opened read-only, and a journal that can't be read has no entry.
func JournalEntry(journalFile, taskId string) (journal.Record, bool) {
	if journalFile == "" || !endpoints.IsValidId(taskId) {
		return journal.Record{}, false
	}
	j, err := journal.OpenReadOnly(journalFile)
	if err != nil {
		log.Debugf("No journal entry for task %s: %s", taskId, err)
		return journal.Record{}, false
	}
	defer j.Close()
	record, err := j.TransferRecord(uuid.MustParse(taskId))
	if err != nil {
		log.Debugf("No journal entry for task %s: %s", taskId, err)
		return journal.Record{}, false
	}
	return record, true
}

// PrintRecord writes a journal record in the form used by the history and
// status commands.
func PrintRecord(out io.Writer, record journal.Record) {
	fmt.Fprintf(out, "-- Task: %s\n", record.TaskId)
	fmt.Fprintf(out, "Submitted: %s\n", record.SubmittedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Label: %s\n", record.Label)
	fmt.Fprintf(out, "Source: %s:%s\n", record.SourceEndpoint, record.SourcePath)
	fmt.Fprintf(out, "Destination: %s:%s\n\n", record.DestinationEndpoint, record.DestinationPath)
}
