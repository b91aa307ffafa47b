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
	"net/http"
	"net/url"
)

// This file implements a client for the Globus Groups API described at
// https://docs.globus.org/api/groups/.

// a client for the Globus Groups API
type GroupsClient struct {
	api apiClient
}

// creates a Groups API client rooted at the given URL that sends requests
// with the given (authorized) HTTP client
func NewGroupsClient(baseURL string, client *http.Client) *GroupsClient {
	return &GroupsClient{
		api: apiClient{BaseURL: baseURL, Client: client},
	}
}

// the caller's membership in a group
type Membership struct {
	GroupId    string `json:"group_id"`
	IdentityId string `json:"identity_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	// "active", "invited", "pending", "left", ...
	Status string `json:"status"`
}

// a group in which the caller has at least one membership record
type Group struct {
	Id            string       `json:"id"`
	Name          string       `json:"name"`
	MyMemberships []Membership `json:"my_memberships"`
}

// fetches the groups of which the caller is a member
// https://groups.api.globus.org/redoc#operation/get_my_groups_and_memberships_v2_groups_my_groups_get
func (c *GroupsClient) MyGroups(ctx context.Context) ([]Group, error) {
	var groups []Group
	err := c.api.get(ctx, "groups/my_groups", url.Values{}, &groups)
	return groups, err
}
