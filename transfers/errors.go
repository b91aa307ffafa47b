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
	"fmt"
)

// indicates that a caller-supplied endpoint ID is not a well-formed UUID
type InvalidEndpointIdError struct {
	Role Role
	Id   string
}

func (e InvalidEndpointIdError) Error() string {
	return fmt.Sprintf("%s endpoint ID is not a valid UUID - aborting.", e.Role)
}

// indicates that neither a named endpoint nor an endpoint ID was given for a role
type MissingEndpointError struct {
	Role Role
}

func (e MissingEndpointError) Error() string {
	return fmt.Sprintf("No %s endpoint was given; supply an endpoint index or an endpoint ID",
		e.Role.Lower())
}

// indicates that a path does not exist on an endpoint
type PathNotFoundError struct {
	Endpoint, Path, Message string
}

func (e PathNotFoundError) Error() string {
	return fmt.Sprintf("Failed to get path on %s: %s", e.Endpoint, e.Message)
}

// indicates that a missing destination directory could not be created
type CreateDirectoryError struct {
	Endpoint, Path, Message string
}

func (e CreateDirectoryError) Error() string {
	return fmt.Sprintf("Failed to create destination path: %s", e.Message)
}

// indicates that Globus rejected the stored credentials
type ExpiredCredentialsError struct {
	TokenFile string
}

func (e ExpiredCredentialsError) Error() string {
	return fmt.Sprintf("Globus Auth API Error: Failed to get endpoint(s)\n"+
		"Delete '%s' and run again to re-authenticate.", e.TokenFile)
}

// indicates that a task ID given for a status lookup is not a well-formed UUID
type InvalidTaskIdError struct {
	Id string
}

func (e InvalidTaskIdError) Error() string {
	return fmt.Sprintf("Task ID '%s' is not a valid UUID", e.Id)
}

// indicates that the status of a task could not be fetched
type TaskStatusError struct {
	Id, Message string
}

func (e TaskStatusError) Error() string {
	return fmt.Sprintf("Failed to get task status: %s", e.Message)
}
