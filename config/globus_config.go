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

package config

import (
	"github.com/google/uuid"
)

const (
	DefaultClientId    = "27637bc2-defa-41df-b16b-561543dc1e7e"
	DefaultAppName     = "DME Transfer Script"
	DefaultGroupId     = "3ca64c67-9daf-11e9-855f-0e45b29ab6fa"
	DefaultAuthURL     = "https://auth.globus.org"
	DefaultTransferURL = "https://transfer.api.globus.org/v0.10"
	DefaultGroupsURL   = "https://groups.api.globus.org/v2"
	DefaultWebURL      = "https://app.globus.org"
)

type GlobusConfig struct {
	// the native app client ID registered with Globus Auth (uuid)
	ClientId uuid.UUID `yaml:"client_id"`
	// application name sent as the User-Agent of every Globus request
	AppName string `yaml:"app_name"`
	// the Globus group whose active members may use DME endpoints (uuid)
	GroupId uuid.UUID `yaml:"group_id"`
	// base URL of Globus Auth
	AuthURL string `yaml:"auth_url"`
	// base URL of the Globus Transfer API, including its version
	TransferURL string `yaml:"transfer_url"`
	// base URL of the Globus Groups API, including its version
	GroupsURL string `yaml:"groups_url"`
	// base URL of the Globus web app (file manager, group join pages)
	WebURL string `yaml:"web_url"`
}
