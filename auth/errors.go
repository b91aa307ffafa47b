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

package auth

import (
	"fmt"
)

// indicates that the token cache holds no record for a resource server
type MissingTokenError struct {
	ResourceServer string
}

func (e MissingTokenError) Error() string {
	return fmt.Sprintf("No tokens were found for %s", e.ResourceServer)
}

// indicates that the token cache could not be decoded
type CorruptTokenFileError struct {
	Filename, Message string
}

func (e CorruptTokenFileError) Error() string {
	return fmt.Sprintf("Couldn't read token cache %s: %s", e.Filename, e.Message)
}

// indicates that the interactive login flow failed
type LoginError struct {
	Message string
}

func (e LoginError) Error() string {
	return fmt.Sprintf("Globus login failed: %s", e.Message)
}

// indicates that an authorized client for a Globus service could not be built
type ClientError struct {
	Service, Message string
}

func (e ClientError) Error() string {
	return fmt.Sprintf("Failed to create %s API client: %s", e.Service, e.Message)
}

// indicates that the caller does not belong to the required access group
type NotMemberError struct {
	GroupId, JoinURL string
}

func (e NotMemberError) Error() string {
	return fmt.Sprintf("You must be a member of the DME Endpoint Access group to access DME endpoints\n"+
		"Request membership at: %s", e.JoinURL)
}

// indicates that the caller belongs to the required access group, but none of
// their memberships is active
type InactiveMembershipError struct {
	GroupId string
}

func (e InactiveMembershipError) Error() string {
	return "You must be an active member of the DME Endpoint Access group to access DME endpoints"
}
