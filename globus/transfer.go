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

package globus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// This file implements a client for the Globus Transfer API described at
// https://docs.globus.org/api/transfer/.

// a client for the Globus Transfer API
type TransferClient struct {
	api apiClient
}

// creates a Transfer API client rooted at the given URL that sends requests
// with the given (authorized) HTTP client
func NewTransferClient(baseURL string, client *http.Client) *TransferClient {
	return &TransferClient{
		api: apiClient{BaseURL: baseURL, Client: client},
	}
}

// https://docs.globus.org/api/transfer/endpoints_and_collections/#endpoint_or_collection_fields
type EndpointDocument struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	OwnerString string `json:"owner_string"`
	HostRoot    string `json:"host_root"`
}

// fetches metadata for the endpoint (or collection) with the given ID
func (c *TransferClient) GetEndpoint(ctx context.Context, endpointId string) (EndpointDocument, error) {
	var doc EndpointDocument
	err := c.api.get(ctx, fmt.Sprintf("endpoint/%s", endpointId), url.Values{}, &doc)
	return doc, err
}

// https://docs.globus.org/api/transfer/file_operations/#dir_listing_response
type DirListing struct {
	Path string `json:"path"`
	Data []struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Size int64  `json:"size"`
	} `json:"DATA"`
}

// lists the contents of the given directory on the given endpoint
// (https://docs.globus.org/api/transfer/file_operations/#list_directory_contents)
func (c *TransferClient) OperationLs(ctx context.Context, endpointId, path string) (DirListing, error) {
	values := url.Values{}
	values.Add("path", path)
	var listing DirListing
	err := c.api.get(ctx, fmt.Sprintf("operation/endpoint/%s/ls", endpointId), values, &listing)
	return listing, err
}

// creates the given directory on the given endpoint
// (https://docs.globus.org/api/transfer/file_operations/#make_directory)
func (c *TransferClient) OperationMkdir(ctx context.Context, endpointId, path string) error {
	type MkdirRequest struct {
		DataType string `json:"DATA_TYPE"` // "mkdir"
		Path     string `json:"path"`
	}
	return c.api.post(ctx, fmt.Sprintf("operation/endpoint/%s/mkdir", endpointId),
		MkdirRequest{DataType: "mkdir", Path: path}, nil)
}

// https://docs.globus.org/api/transfer/task_submit/#get_submission_id
func (c *TransferClient) getSubmissionId(ctx context.Context) (uuid.UUID, error) {
	type SubmissionIdResponse struct {
		Value uuid.UUID `json:"value"`
	}
	var response SubmissionIdResponse
	err := c.api.get(ctx, "submission_id", url.Values{}, &response)
	return response.Value, err
}

// a single file or directory to be transferred
type TransferItem struct {
	SourcePath      string
	DestinationPath string
	Recursive       bool
}

// describes a transfer task between two endpoints
type TransferData struct {
	SourceEndpoint      string
	DestinationEndpoint string
	Label               string
	Items               []TransferItem
}

// adds a file or directory to the transfer
func (d *TransferData) AddItem(sourcePath, destinationPath string, recursive bool) {
	d.Items = append(d.Items, TransferItem{
		SourcePath:      sourcePath,
		DestinationPath: destinationPath,
		Recursive:       recursive,
	})
}

// the result of a successful transfer submission
type SubmitResult struct {
	TaskId       string `json:"task_id"`
	SubmissionId string `json:"submission_id"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// submits a transfer task, returning the ID Globus assigns to it
// https://docs.globus.org/api/transfer/task_submit/#submit_transfer_task
// https://docs.globus.org/api/transfer/task_submit/#transfer_item_fields
func (c *TransferClient) SubmitTransfer(ctx context.Context, data TransferData) (SubmitResult, error) {
	type TransferItem struct {
		DataType        string `json:"DATA_TYPE"` // "transfer_item"
		SourcePath      string `json:"source_path"`
		DestinationPath string `json:"destination_path"`
		Recursive       bool   `json:"recursive"`
	}
	type SubmissionRequest struct {
		DataType            string         `json:"DATA_TYPE"` // "transfer"
		Id                  string         `json:"submission_id"`
		Label               string         `json:"label,omitempty"`
		Data                []TransferItem `json:"DATA"`
		DestinationEndpoint string         `json:"destination_endpoint"`
		SourceEndpoint      string         `json:"source_endpoint"`
	}

	submissionId, err := c.getSubmissionId(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	xferItems := make([]TransferItem, len(data.Items))
	for i, item := range data.Items {
		xferItems[i] = TransferItem{
			DataType:        "transfer_item",
			SourcePath:      item.SourcePath,
			DestinationPath: item.DestinationPath,
			Recursive:       item.Recursive,
		}
	}
	var result SubmitResult
	err = c.api.post(ctx, "transfer", SubmissionRequest{
		DataType:            "transfer",
		Id:                  submissionId.String(),
		Label:               data.Label,
		Data:                xferItems,
		DestinationEndpoint: data.DestinationEndpoint,
		SourceEndpoint:      data.SourceEndpoint,
	}, &result)
	if err != nil {
		return SubmitResult{}, err
	}
	if result.TaskId == "" { // trouble!
		return result, fmt.Errorf("%s (%s)", result.Message, result.Code)
	}
	return result, nil
}

// a transfer task record as returned by Globus. Only a few fields are
// decoded; the full document is kept in Raw.
type Task struct {
	TaskId string          `json:"task_id"`
	Status string          `json:"status"`
	Label  string          `json:"label"`
	Raw    json.RawMessage `json:"-"`
}

// fetches the record for the task with the given ID
// https://docs.globus.org/api/transfer/task/#get_task_by_id
func (c *TransferClient) GetTask(ctx context.Context, taskId string) (Task, error) {
	var raw json.RawMessage
	if err := c.api.get(ctx, fmt.Sprintf("task/%s", taskId), url.Values{}, &raw); err != nil {
		return Task{}, err
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return Task{}, err
	}
	task.Raw = raw
	return task, nil
}
