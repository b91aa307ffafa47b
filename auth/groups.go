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
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/dme/dmexfer/config"
	"github.com/dme/dmexfer/globus"
)

// Only active members of the DME Endpoint Access group may use DME endpoints.

// anything that can list the caller's Globus groups
type GroupLister interface {
	MyGroups(ctx context.Context) ([]globus.Group, error)
}

// returns the web page at which users may request membership in the group
func JoinURL(conf config.GlobusConfig) string {
	return fmt.Sprintf("%s/groups/%s/join", conf.WebURL, conf.GroupId)
}

// checks that the caller has an active membership in the configured access
// group, returning a NotMemberError or an InactiveMembershipError if not
func ValidateGroupMembership(ctx context.Context, groups GroupLister, conf config.GlobusConfig) error {
	memberships, err := groups.MyGroups(ctx)
	if err != nil {
		return errors.Wrap(err, "couldn't fetch group memberships")
	}

	groupId := conf.GroupId.String()
	for _, group := range memberships {
		if !strings.EqualFold(group.Id, groupId) {
			continue
		}
		for _, membership := range group.MyMemberships {
			if membership.Status == "active" {
				return nil
			}
		}
		return &InactiveMembershipError{GroupId: groupId}
	}
	return &NotMemberError{GroupId: groupId, JoinURL: JoinURL(conf)}
}
