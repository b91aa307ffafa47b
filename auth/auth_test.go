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

// These tests verify the Globus login flow, the token cache, and the access
// group check against a fake Globus service.
package auth

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"

	"github.com/dme/dmexfer/config"
	"github.com/dme/dmexfer/dmetest"
	"github.com/dme/dmexfer/globus"
)

// runs setup, runs all tests, and does breakdown
func TestMain(m *testing.M) {
	setup()
	status := m.Run()
	breakdown()
	os.Exit(status)
}

// temporary testing directory
var TestDir string

// fake Globus service
var server *dmetest.Server

const testEndpointId = "11111111-1111-1111-1111-111111111111"

func setup() {
	dmetest.EnableDebugLogging()

	log.Print("Creating testing directory...\n")
	var err error
	TestDir, err = os.MkdirTemp(os.TempDir(), "dme-auth-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err.Error())
	}

	server = dmetest.NewServer()
	server.AddEndpoint(testEndpointId, "DME Test Endpoint", "/")
}

func breakdown() {
	server.Close()
	if TestDir != "" {
		log.Printf("Deleting testing directory %s...\n", TestDir)
		os.RemoveAll(TestDir)
	}
}

// returns Globus settings pointing at the fake service
func testConfig() config.GlobusConfig {
	conf := config.Default().Globus
	conf.AuthURL = server.AuthURL()
	conf.TransferURL = server.TransferURL()
	conf.GroupsURL = server.GroupsURL()
	return conf
}

// returns a token store backed by a fresh file in the testing directory
func newStore(t *testing.T, key string) *TokenStore {
	dir, err := os.MkdirTemp(TestDir, "tokens-")
	assert.Nil(t, err)
	store, err := NewTokenStore(filepath.Join(dir, ".dme_tokens.json"), key)
	assert.Nil(t, err)
	return store
}

func TestTokenStoreRoundTrip(t *testing.T) {
	assert := assert.New(t)
	store := newStore(t, "")
	assert.False(store.Exists())
	_, err := store.Load()
	assert.NotNil(err)

	transfer := TokenRecord{
		ResourceServer:   TransferResourceServer,
		AccessToken:      "a1",
		RefreshToken:     "r1",
		TokenType:        "Bearer",
		ExpiresAtSeconds: 1700000000,
	}
	groups := TokenRecord{ResourceServer: GroupsResourceServer, AccessToken: "a2", RefreshToken: "r2"}
	assert.Nil(store.Store(transfer))
	assert.Nil(store.Store(groups))
	assert.True(store.Exists())

	record, err := store.Get(TransferResourceServer)
	assert.Nil(err)
	assert.Equal(transfer, record)
	assert.Equal(time.Unix(1700000000, 0), record.Token().Expiry)

	// the cache is a JSON object keyed by resource server
	data, err := os.ReadFile(store.Filename)
	assert.Nil(err)
	assert.Contains(string(data), `"transfer.api.globus.org"`)
	assert.Contains(string(data), `"expires_at_seconds": 1700000000`)
	info, err := os.Stat(store.Filename)
	assert.Nil(err)
	assert.Equal(os.FileMode(0600), info.Mode().Perm())

	_, err = store.Get(AuthResourceServer)
	var missing *MissingTokenError
	assert.True(errors.As(err, &missing))

	assert.Nil(store.Remove())
	assert.False(store.Exists())
	assert.Nil(store.Remove())
}

func TestEncryptedTokenStore(t *testing.T) {
	assert := assert.New(t)
	var key fernet.Key
	assert.Nil(key.Generate())
	store := newStore(t, key.Encode())

	record := TokenRecord{ResourceServer: TransferResourceServer, AccessToken: "secret-access"}
	assert.Nil(store.Store(record))
	data, err := os.ReadFile(store.Filename)
	assert.Nil(err)
	assert.NotContains(string(data), "secret-access")

	loaded, err := store.Get(TransferResourceServer)
	assert.Nil(err)
	assert.Equal(record, loaded)

	// a different key can't read the cache
	var otherKey fernet.Key
	assert.Nil(otherKey.Generate())
	other, err := NewTokenStore(store.Filename, otherKey.Encode())
	assert.Nil(err)
	_, err = other.Load()
	var corrupt *CorruptTokenFileError
	assert.True(errors.As(err, &corrupt))

	_, err = NewTokenStore(store.Filename, "not-a-key")
	assert.NotNil(err)
}

func TestScopes(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]string{
		"openid", "email", "profile",
		"urn:globus:auth:scope:groups.api.globus.org:all",
		"urn:globus:auth:scope:transfer.api.globus.org:all",
	}, scopeStrings(RequestedScopes("")))

	collection := "5f1e2d3c-4b5a-4968-8776-a5b4c3d2e1f0"
	scopes := RequestedScopes(collection)
	assert.Equal("urn:globus:auth:scope:transfer.api.globus.org:all"+
		"[*https://auth.globus.org/scopes/"+collection+"/data_access]",
		scopes[len(scopes)-1].String())

	nested := Scope{Name: "a"}
	inner := Scope{Name: "b"}
	inner.AddDependency(Scope{Name: "c", Optional: true})
	nested.AddDependency(inner)
	nested.AddDependency(Scope{Name: "d"})
	assert.Equal("a[b[*c] d]", nested.String())
}

func TestAuthorizeURL(t *testing.T) {
	assert := assert.New(t)
	gate := NewGate(testConfig(), newStore(t, ""), strings.NewReader(""), &bytes.Buffer{})
	collection := "5f1e2d3c-4b5a-4968-8776-a5b4c3d2e1f0"
	u, err := url.Parse(gate.AuthorizeURL(RequestedScopes(collection), "verifier"))
	assert.Nil(err)
	assert.Equal("/auth/v2/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(config.DefaultClientId, q.Get("client_id"))
	assert.Equal("code", q.Get("response_type"))
	assert.Equal("offline", q.Get("access_type"))
	assert.Equal("S256", q.Get("code_challenge_method"))
	assert.NotEmpty(q.Get("code_challenge"))
	assert.Equal(server.AuthURL()+"/v2/web/auth-code", q.Get("redirect_uri"))
	assert.Contains(q.Get("scope"), "/scopes/"+collection+"/data_access")
}

func TestLoginAndServiceClients(t *testing.T) {
	assert := assert.New(t)
	store := newStore(t, "")
	var out bytes.Buffer
	gate := NewGate(testConfig(), store, strings.NewReader(server.AuthCode+"\n"), &out)

	transferClient, groupsClient, err := gate.ServiceClients(context.Background(), "")
	assert.Nil(err)
	assert.NotNil(transferClient)
	assert.NotNil(groupsClient)
	assert.Contains(out.String(), "Log into Globus at this URL: "+server.AuthURL())
	assert.Contains(out.String(), "Enter the code you get after login here: ")

	// tokens for all three resource servers were saved
	records, err := store.Load()
	assert.Nil(err)
	for _, rs := range []string{AuthResourceServer, TransferResourceServer, GroupsResourceServer} {
		assert.Contains(records, rs)
		assert.NotEmpty(records[rs].RefreshToken)
		assert.Greater(records[rs].ExpiresAtSeconds, time.Now().Unix())
	}

	// the transfer client works with the new tokens
	doc, err := transferClient.GetEndpoint(context.Background(), testEndpointId)
	assert.Nil(err)
	assert.Equal("DME Test Endpoint", doc.DisplayName)

	// every request identifies the application
	assert.Equal(config.DefaultAppName, server.UserAgent("token"))
	assert.Equal(config.DefaultAppName, server.UserAgent("endpoint"))

	// a second call reuses the cache instead of logging in again
	logins := server.RequestCount("token")
	gate.In = strings.NewReader("")
	_, _, err = gate.ServiceClients(context.Background(), "")
	assert.Nil(err)
	assert.Equal(logins, server.RequestCount("token"))
}

func TestLoginRejectsBadCode(t *testing.T) {
	assert := assert.New(t)
	store := newStore(t, "")
	gate := NewGate(testConfig(), store, strings.NewReader("wrong-code\n"), &bytes.Buffer{})
	_, _, err := gate.ServiceClients(context.Background(), "")
	var loginErr *LoginError
	assert.True(errors.As(err, &loginErr))
	assert.False(store.Exists())

	gate.In = strings.NewReader("\n")
	err = gate.Login(context.Background(), "")
	assert.True(errors.As(err, &loginErr))
}

func TestMissingServiceTokens(t *testing.T) {
	assert := assert.New(t)
	store := newStore(t, "")
	assert.Nil(store.Store(TokenRecord{ResourceServer: TransferResourceServer, AccessToken: "a"}))
	gate := NewGate(testConfig(), store, strings.NewReader(""), &bytes.Buffer{})
	_, _, err := gate.ServiceClients(context.Background(), "")
	var clientErr *ClientError
	assert.True(errors.As(err, &clientErr))
	assert.Equal("Groups", clientErr.Service)
	assert.Contains(err.Error(), "Failed to create Groups API client")
}

func TestExpiredTokensAreRefreshedAndSaved(t *testing.T) {
	assert := assert.New(t)
	store := newStore(t, "")
	server.Grant(dmetest.TransferResourceServer, "stale-access", "refresh-me")
	expired := TokenRecord{
		ResourceServer:   TransferResourceServer,
		AccessToken:      "stale-access",
		RefreshToken:     "refresh-me",
		TokenType:        "Bearer",
		ExpiresAtSeconds: time.Now().Add(-time.Hour).Unix(),
	}
	assert.Nil(store.Store(expired, TokenRecord{ResourceServer: GroupsResourceServer, AccessToken: "g"}))

	gate := NewGate(testConfig(), store, strings.NewReader(""), &bytes.Buffer{})
	transferClient, _, err := gate.ServiceClients(context.Background(), "")
	assert.Nil(err)
	_, err = transferClient.GetEndpoint(context.Background(), testEndpointId)
	assert.Nil(err)

	record, err := store.Get(TransferResourceServer)
	assert.Nil(err)
	assert.NotEqual("stale-access", record.AccessToken)
	assert.Equal("refresh-me", record.RefreshToken)
	assert.Greater(record.ExpiresAtSeconds, time.Now().Unix())
}

func TestRevokedTokensAreAuthErrors(t *testing.T) {
	assert := assert.New(t)
	store := newStore(t, "")
	revoked := TokenRecord{
		ResourceServer:   TransferResourceServer,
		AccessToken:      "revoked-access",
		RefreshToken:     "revoked-refresh",
		ExpiresAtSeconds: time.Now().Add(-time.Hour).Unix(),
	}
	assert.Nil(store.Store(revoked, TokenRecord{ResourceServer: GroupsResourceServer, AccessToken: "g"}))

	gate := NewGate(testConfig(), store, strings.NewReader(""), &bytes.Buffer{})
	transferClient, _, err := gate.ServiceClients(context.Background(), "")
	assert.Nil(err)
	_, err = transferClient.GetEndpoint(context.Background(), testEndpointId)
	assert.NotNil(err)
	assert.True(globus.IsAuthError(err))
}

// a GroupLister returning a fixed set of groups
type fixedGroups []globus.Group

func (g fixedGroups) MyGroups(ctx context.Context) ([]globus.Group, error) {
	return g, nil
}

func TestValidateGroupMembership(t *testing.T) {
	assert := assert.New(t)
	conf := testConfig()
	groupId := conf.GroupId.String()
	ctx := context.Background()

	// no matching group
	err := ValidateGroupMembership(ctx, fixedGroups{{Id: "someone-elses-group"}}, conf)
	var notMember *NotMemberError
	assert.True(errors.As(err, &notMember))
	assert.Contains(err.Error(), "You must be a member of the DME Endpoint Access group")
	assert.Contains(err.Error(), "https://app.globus.org/groups/"+groupId+"/join")

	// a matching group with no active membership
	err = ValidateGroupMembership(ctx, fixedGroups{{
		Id:            groupId,
		MyMemberships: []globus.Membership{{Status: "invited"}, {Status: "pending"}},
	}}, conf)
	var inactive *InactiveMembershipError
	assert.True(errors.As(err, &inactive))
	assert.Contains(err.Error(), "You must be an active member")

	// an active membership among others
	err = ValidateGroupMembership(ctx, fixedGroups{{Id: "other"}, {
		Id:            groupId,
		MyMemberships: []globus.Membership{{Status: "left"}, {Status: "active"}},
	}}, conf)
	assert.Nil(err)
}

func TestValidateGroupMembershipWithService(t *testing.T) {
	assert := assert.New(t)
	conf := testConfig()
	server.Grant(dmetest.GroupsResourceServer, "groups-access", "groups-refresh-x")
	store := newStore(t, "")
	assert.Nil(store.Store(
		TokenRecord{ResourceServer: TransferResourceServer, AccessToken: "t"},
		TokenRecord{ResourceServer: GroupsResourceServer, AccessToken: "groups-access"},
	))
	gate := NewGate(conf, store, strings.NewReader(""), &bytes.Buffer{})
	_, groupsClient, err := gate.ServiceClients(context.Background(), "")
	assert.Nil(err)

	err = ValidateGroupMembership(context.Background(), groupsClient, conf)
	assert.IsType(&NotMemberError{}, err)

	server.AddGroup(conf.GroupId.String(), "active")
	assert.Nil(ValidateGroupMembership(context.Background(), groupsClient, conf))
}
