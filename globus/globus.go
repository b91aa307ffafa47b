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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/StalkR/hsts"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// This file holds the plumbing shared by the Globus Transfer and Groups
// clients. Both APIs report failures as JSON documents carrying a "code" and a
// "message" (https://docs.globus.org/api/transfer/overview/#errors).

// this type captures error results from Globus API responses
type globusResult struct {
	// string indicating the Globus error condition (e.g. "EndpointNotFound")
	Code string `json:"code"`
	// error message
	Message string `json:"message"`
	// request ID for support inquiries
	RequestId string `json:"request_id"`
}

// returns an HTTP client that refuses redirects to plain HTTP and honors
// Strict-Transport-Security headers, identifying itself with the given
// User-Agent if it isn't empty
func SecureHttpClient(transport http.RoundTripper, userAgent string) *http.Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.URL.Scheme == "http" {
				return &DowngradedRedirectError{
					Endpoint: fmt.Sprintf("%s%s", req.URL.Host, req.URL.Path),
				}
			}
			return http.ErrUseLastResponse
		},
	}
	client.Transport = hsts.New(transport) // enable HSTS
	if userAgent != "" {
		client.Transport = &userAgentTransport{UserAgent: userAgent, Base: client.Transport}
	}
	return client
}

// returns a secure HTTP client that authorizes every request with a token
// from the given source, refreshing it as needed
func AuthorizedHttpClient(source oauth2.TokenSource, userAgent string) *http.Client {
	client := SecureHttpClient(nil, userAgent)
	client.Transport = &oauth2.Transport{
		Source: source,
		Base:   client.Transport,
	}
	return client
}

// sets the User-Agent header on each request before passing it along
type userAgentTransport struct {
	UserAgent string
	Base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.UserAgent)
	return t.Base.RoundTrip(req)
}

// a client for one Globus REST API rooted at a base URL
type apiClient struct {
	// base URL, including the API version (e.g. https://transfer.api.globus.org/v0.10)
	BaseURL string
	// HTTP client that attaches authorization to each request
	Client *http.Client
}

// builds the URL for the given resource and query parameters
func (c apiClient) resourceURL(resource string, values url.Values) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	u = u.JoinPath(resource)
	if len(values) > 0 {
		u.RawQuery = values.Encode()
	}
	return u.String(), nil
}

// performs a GET request on the given resource, decoding the JSON response
// into result
func (c apiClient) get(ctx context.Context, resource string, values url.Values, result any) error {
	res, err := c.resourceURL(resource, values)
	if err != nil {
		return err
	}
	log.Debugf("GET: %s", res)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res, http.NoBody)
	if err != nil {
		return err
	}
	return c.do(req, result)
}

// performs a POST request with the given JSON body on the given resource,
// decoding the JSON response into result
func (c apiClient) post(ctx context.Context, resource string, body any, result any) error {
	res, err := c.resourceURL(resource, nil)
	if err != nil {
		return err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	log.Debugf("POST: %s", res)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, res, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

// sends the request and interprets the response
func (c apiClient) do(req *http.Request, result any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "couldn't read response from %s", req.URL)
	}
	log.Debugf("%s %s: %d", req.Method, req.URL, resp.StatusCode)

	// redirects are never followed, so they end up here too
	if resp.StatusCode >= 300 {
		var gResult globusResult
		if json.Unmarshal(body, &gResult) != nil || gResult.Message == "" {
			gResult.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       gResult.Code,
			Message:    gResult.Message,
			RequestId:  gResult.RequestId,
		}
	}
	if result == nil {
		return nil
	}
	if err = json.Unmarshal(body, result); err != nil {
		return errors.Wrapf(err, "couldn't parse response from %s", req.URL)
	}
	return nil
}
