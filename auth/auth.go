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
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/dme/dmexfer/config"
	"github.com/dme/dmexfer/globus"
)

// resource servers whose tokens the tool uses
const (
	AuthResourceServer     = "auth.globus.org"
	TransferResourceServer = "transfer.api.globus.org"
	GroupsResourceServer   = "groups.api.globus.org"
)

// the state parameter sent with authorization requests; native apps paste the
// code back by hand, so there is no callback to protect
const loginState = "_default"

// A Gate obtains tokens for the current user (logging in interactively if
// needed) and builds authorized clients for the Globus services. One is built
// per invocation and passed to whatever needs it.
type Gate struct {
	// Globus application and service settings
	Config config.GlobusConfig
	// the local token cache
	Store *TokenStore
	// source of the authorization code typed by the user
	In io.Reader
	// destination for login prompts
	Out io.Writer
}

// creates a gate using the given settings, token cache, and terminal streams
func NewGate(conf config.GlobusConfig, store *TokenStore, in io.Reader, out io.Writer) *Gate {
	return &Gate{
		Config: conf,
		Store:  store,
		In:     in,
		Out:    out,
	}
}

// returns the OAuth2 configuration for the Globus native app, requesting the
// given scopes
func (g *Gate) oauth2Config(scopes []Scope) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    g.Config.ClientId.String(),
		RedirectURL: g.Config.AuthURL + "/v2/web/auth-code",
		Scopes:      scopeStrings(scopes),
		Endpoint: oauth2.Endpoint{
			AuthURL:   g.Config.AuthURL + "/v2/oauth2/authorize",
			TokenURL:  g.Config.AuthURL + "/v2/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// returns a context whose OAuth2 requests go through a secure HTTP client
func (g *Gate) authContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, globus.SecureHttpClient(nil, g.Config.AppName))
}

// returns the URL at which the user logs in, requesting the given scopes
// with a PKCE challenge derived from verifier
func (g *Gate) AuthorizeURL(scopes []Scope, verifier string) string {
	return g.oauth2Config(scopes).AuthCodeURL(loginState,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
}

// Login runs the interactive authorization code flow: it prints a URL, reads
// the code the user obtains there, exchanges it for tokens, and stores the
// tokens for every resource server in the response.
func (g *Gate) Login(ctx context.Context, mappedCollection string) error {
	scopes := RequestedScopes(mappedCollection)
	verifier := oauth2.GenerateVerifier()
	fmt.Fprintf(g.Out, "Log into Globus at this URL: %s\n", g.AuthorizeURL(scopes, verifier))
	fmt.Fprint(g.Out, "Enter the code you get after login here: ")

	line, err := bufio.NewReader(g.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return &LoginError{Message: err.Error()}
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return &LoginError{Message: "no authorization code was entered"}
	}

	token, err := g.oauth2Config(scopes).Exchange(g.authContext(ctx), code,
		oauth2.VerifierOption(verifier))
	if err != nil {
		return &LoginError{Message: err.Error()}
	}
	records, err := splitTokenResponse(token)
	if err != nil {
		return &LoginError{Message: err.Error()}
	}
	if err = g.Store.Store(records...); err != nil {
		return errors.Wrap(err, "couldn't save tokens")
	}
	log.Debugf("Stored tokens for %d resource servers in %s", len(records), g.Store.Filename)
	return nil
}

// ServiceClients returns authorized Transfer and Groups clients, logging in
// first if there is no token cache. The mapped collection (if any) is used
// only to request its data_access scope at login.
func (g *Gate) ServiceClients(ctx context.Context, mappedCollection string) (*globus.TransferClient, *globus.GroupsClient, error) {
	if !g.Store.Exists() {
		if err := g.Login(ctx, mappedCollection); err != nil {
			return nil, nil, err
		}
	}

	transferClient, err := g.authorizedClient(ctx, TransferResourceServer)
	if err != nil {
		return nil, nil, &ClientError{Service: "Transfer", Message: err.Error()}
	}
	groupsClient, err := g.authorizedClient(ctx, GroupsResourceServer)
	if err != nil {
		return nil, nil, &ClientError{Service: "Groups", Message: err.Error()}
	}
	return globus.NewTransferClient(g.Config.TransferURL, transferClient),
		globus.NewGroupsClient(g.Config.GroupsURL, groupsClient), nil
}

// builds an HTTP client authorized with the stored tokens for the given
// resource server
func (g *Gate) authorizedClient(ctx context.Context, resourceServer string) (*http.Client, error) {
	record, err := g.Store.Get(resourceServer)
	if err != nil {
		return nil, err
	}
	if record.RefreshToken == "" && record.AccessToken == "" {
		return nil, &MissingTokenError{ResourceServer: resourceServer}
	}
	// refresh grants don't need scopes
	source := g.oauth2Config(nil).TokenSource(g.authContext(ctx), record.Token())
	return globus.AuthorizedHttpClient(&storingTokenSource{
		ResourceServer: resourceServer,
		Scope:          record.Scope,
		Store:          g.Store,
		Source:         source,
		last:           record.AccessToken,
	}, g.Config.AppName), nil
}

// a token source that writes refreshed tokens back to the token cache
type storingTokenSource struct {
	ResourceServer string
	Scope          string
	Store          *TokenStore
	Source         oauth2.TokenSource
	last           string
}

func (s *storingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.Source.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last {
		log.Debugf("Refreshed access token for %s", s.ResourceServer)
		s.last = token.AccessToken
		if err := s.Store.Store(recordFromToken(s.ResourceServer, s.Scope, token)); err != nil {
			log.Warnf("Couldn't save refreshed token for %s: %s", s.ResourceServer, err)
		}
	}
	return token, nil
}

// Splits a Globus token response into one record per resource server. Globus
// returns the tokens for the first resource server at the top level and the
// rest under "other_tokens".
// Ref: https://docs.globus.org/api/auth/reference/#authorization_code_grant_preferred
func splitTokenResponse(token *oauth2.Token) ([]TokenRecord, error) {
	records := make([]TokenRecord, 0)
	if rs, ok := token.Extra("resource_server").(string); ok && rs != "" {
		scope, _ := token.Extra("scope").(string)
		records = append(records, recordFromToken(rs, scope, token))
	}

	otok := token.Extra("other_tokens")
	if otok == nil {
		return records, nil
	}
	tokArr, ok := otok.([]interface{})
	if !ok {
		return nil, fmt.Errorf("other_tokens in Globus token response is not an array: %T", otok)
	}
	for _, tokInt := range tokArr {
		tok, ok := tokInt.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("Globus resource token is not a map with string keys: %T", tokInt)
		}
		rs, ok := tok["resource_server"].(string)
		if !ok || rs == "" {
			continue
		}
		accessToken, ok := tok["access_token"].(string)
		if !ok {
			return nil, fmt.Errorf("the access_token of resource %q is not a string: %T", rs, tok["access_token"])
		}
		record := TokenRecord{
			ResourceServer: rs,
			AccessToken:    accessToken,
		}
		record.RefreshToken, _ = tok["refresh_token"].(string)
		record.TokenType, _ = tok["token_type"].(string)
		record.Scope, _ = tok["scope"].(string)
		if expiresIn, ok := tok["expires_in"].(float64); ok {
			record.ExpiresAtSeconds = time.Now().Add(time.Duration(expiresIn) * time.Second).Unix()
		}
		records = append(records, record)
	}
	return records, nil
}
