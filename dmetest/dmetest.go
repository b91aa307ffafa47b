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

// This package contains testing utilities for the DME transfer tool: a fake
// Globus service speaking just enough of the Auth, Transfer, and Groups APIs
// to exercise the tool end to end.
package dmetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Enables DEBUG log messages for the tool's structured log.
func EnableDebugLogging() {
	log.SetLevel(log.DebugLevel)
	log.SetFormatter(&log.JSONFormatter{})
}

const (
	TransferResourceServer = "transfer.api.globus.org"
	GroupsResourceServer   = "groups.api.globus.org"
	AuthResourceServer     = "auth.globus.org"
)

// a fake endpoint hosted by the fake Globus service
type Endpoint struct {
	DisplayName string
	// directories that exist on the endpoint
	Dirs map[string]bool
	// if set, mkdir on this endpoint fails with a permission error
	ReadOnly bool
}

// a fake membership record returned by the Groups API
type Membership struct {
	Status string `json:"status"`
	Role   string `json:"role"`
}

// a fake group returned by the Groups API
type Group struct {
	Id            string       `json:"id"`
	Name          string       `json:"name"`
	MyMemberships []Membership `json:"my_memberships"`
}

// Server is a fake Globus service. Its fields may be changed between requests
// to set up a test scenario.
type Server struct {
	*httptest.Server
	mu sync.Mutex
	// endpoints, keyed by ID
	Endpoints map[string]*Endpoint
	// the caller's groups
	Groups []Group
	// tasks, keyed by task ID
	Tasks map[string]map[string]any
	// transfer documents received, in order
	Submissions []map[string]any
	// authorization code accepted by the token endpoint
	AuthCode string
	// access tokens accepted by the resource servers
	AccessTokens map[string]bool
	// refresh tokens accepted by the token endpoint, mapped to resource servers
	RefreshTokens map[string]string
	// number of refresh grants issued
	Refreshes int
	// number of requests handled, keyed by route name
	Requests map[string]int
	// User-Agent of the last request handled, keyed by route name
	UserAgents map[string]string
}

// NewServer starts a fake Globus service. Close it when finished.
func NewServer() *Server {
	s := &Server{
		Endpoints:     make(map[string]*Endpoint),
		Tasks:         make(map[string]map[string]any),
		AuthCode:      "test-auth-code",
		AccessTokens:  make(map[string]bool),
		RefreshTokens: make(map[string]string),
		Requests:      make(map[string]int),
		UserAgents:    make(map[string]string),
	}

	router := mux.NewRouter()
	router.HandleFunc("/auth/v2/oauth2/token", s.token).Methods(http.MethodPost).Name("token")

	transfer := router.PathPrefix("/transfer/v0.10").Subrouter()
	transfer.HandleFunc("/endpoint/{id}", s.authorized(s.getEndpoint)).
		Methods(http.MethodGet).Name("endpoint")
	transfer.HandleFunc("/operation/endpoint/{id}/ls", s.authorized(s.ls)).
		Methods(http.MethodGet).Name("ls")
	transfer.HandleFunc("/operation/endpoint/{id}/mkdir", s.authorized(s.mkdir)).
		Methods(http.MethodPost).Name("mkdir")
	transfer.HandleFunc("/submission_id", s.authorized(s.submissionId)).
		Methods(http.MethodGet).Name("submission_id")
	transfer.HandleFunc("/transfer", s.authorized(s.transfer)).
		Methods(http.MethodPost).Name("transfer")
	transfer.HandleFunc("/task/{id}", s.authorized(s.task)).
		Methods(http.MethodGet).Name("task")

	groups := router.PathPrefix("/groups/v2").Subrouter()
	groups.HandleFunc("/groups/my_groups", s.authorized(s.myGroups)).
		Methods(http.MethodGet).Name("my_groups")

	s.Server = httptest.NewServer(router)
	return s
}

// base URLs for the fake APIs
func (s *Server) AuthURL() string     { return s.URL + "/auth" }
func (s *Server) TransferURL() string { return s.URL + "/transfer/v0.10" }
func (s *Server) GroupsURL() string   { return s.URL + "/groups/v2" }

// Accepts the given access and refresh tokens for the given resource server.
func (s *Server) Grant(resourceServer, accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AccessTokens[accessToken] = true
	s.RefreshTokens[refreshToken] = resourceServer
}

// Revokes every token the server has issued.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AccessTokens = make(map[string]bool)
	s.RefreshTokens = make(map[string]string)
}

// Adds an endpoint with the given ID, name, and existing directories.
func (s *Server) AddEndpoint(id, displayName string, dirs ...string) *Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep := &Endpoint{DisplayName: displayName, Dirs: make(map[string]bool)}
	for _, dir := range dirs {
		ep.Dirs[dir] = true
	}
	s.Endpoints[id] = ep
	return ep
}

// Adds a group with a single membership record of the given status.
func (s *Server) AddGroup(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Groups = append(s.Groups, Group{
		Id:            id,
		Name:          "Test Group",
		MyMemberships: []Membership{{Status: status, Role: "member"}},
	})
}

// returns the number of requests handled by the named route
func (s *Server) RequestCount(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Requests[route]
}

// returns the User-Agent sent with the last request to the named route
func (s *Server) UserAgent(route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UserAgents[route]
}

// returns a copy of the transfer documents received so far
func (s *Server) ReceivedSubmissions() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any{}, s.Submissions...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":       code,
		"message":    message,
		"request_id": "test-request",
	})
}

// wraps a resource handler so it rejects requests without an accepted bearer
// token and runs with the server lock held
func (s *Server) authorized(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if route := mux.CurrentRoute(r); route != nil {
			s.Requests[route.GetName()]++
			s.UserAgents[route.GetName()] = r.UserAgent()
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !s.AccessTokens[token] {
			writeError(w, http.StatusUnauthorized, "AuthenticationFailed", "Token is not active")
			return
		}
		handler(w, r)
	}
}

// issues a fresh set of tokens for a resource server
func (s *Server) issue(resourceServer, refreshToken string) map[string]any {
	s.Refreshes++
	accessToken := fmt.Sprintf("%s-access-%d", resourceServer, s.Refreshes)
	s.AccessTokens[accessToken] = true
	s.RefreshTokens[refreshToken] = resourceServer
	return map[string]any{
		"access_token":    accessToken,
		"refresh_token":   refreshToken,
		"expires_in":      172800,
		"resource_server": resourceServer,
		"token_type":      "Bearer",
		"scope":           "all",
	}
}

// https://docs.globus.org/api/auth/reference/#token
func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests["token"]++
	s.UserAgents["token"] = r.UserAgent()
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") != s.AuthCode || r.PostForm.Get("code_verifier") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		resp := s.issue(AuthResourceServer, "auth-refresh")
		resp["id_token"] = "header.payload.signature"
		resp["other_tokens"] = []any{
			s.issue(TransferResourceServer, "transfer-refresh"),
			s.issue(GroupsResourceServer, "groups-refresh"),
		}
		writeJSON(w, http.StatusOK, resp)
	case "refresh_token":
		refreshToken := r.PostForm.Get("refresh_token")
		resourceServer, found := s.RefreshTokens[refreshToken]
		if !found {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, s.issue(resourceServer, refreshToken))
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (s *Server) getEndpoint(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ep, found := s.Endpoints[id]
	if !found {
		writeError(w, http.StatusNotFound, "EndpointNotFound", fmt.Sprintf("No such endpoint '%s'", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"DATA_TYPE":    "endpoint",
		"id":           id,
		"display_name": ep.DisplayName,
	})
}

func (s *Server) ls(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ep, found := s.Endpoints[id]
	if !found {
		writeError(w, http.StatusNotFound, "EndpointNotFound", fmt.Sprintf("No such endpoint '%s'", id))
		return
	}
	path := r.URL.Query().Get("path")
	if !ep.Dirs[path] {
		writeError(w, http.StatusNotFound, "ClientError.NotFound",
			fmt.Sprintf("Directory '%s' not found on endpoint %s", path, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"DATA_TYPE": "file_list",
		"path":      path,
		"DATA":      []any{},
	})
}

func (s *Server) mkdir(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ep, found := s.Endpoints[id]
	if !found {
		writeError(w, http.StatusNotFound, "EndpointNotFound", fmt.Sprintf("No such endpoint '%s'", id))
		return
	}
	var req struct {
		DataType string `json:"DATA_TYPE"`
		Path     string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DataType != "mkdir" {
		writeError(w, http.StatusBadRequest, "ClientError.BadRequest", "Invalid mkdir document")
		return
	}
	if ep.ReadOnly {
		writeError(w, http.StatusForbidden, "ClientError.PermissionDenied",
			fmt.Sprintf("Permission denied creating '%s'", req.Path))
		return
	}
	ep.Dirs[req.Path] = true
	writeJSON(w, http.StatusAccepted, map[string]any{
		"DATA_TYPE": "mkdir_result",
		"code":      "DirectoryCreated",
		"message":   "The directory was created successfully",
	})
}

func (s *Server) submissionId(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"DATA_TYPE": "submission_id",
		"value":     uuid.NewString(),
	})
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc["DATA_TYPE"] != "transfer" {
		writeError(w, http.StatusBadRequest, "ClientError.BadRequest", "Invalid transfer document")
		return
	}
	for _, key := range []string{"source_endpoint", "destination_endpoint"} {
		id, _ := doc[key].(string)
		if _, found := s.Endpoints[id]; !found {
			writeError(w, http.StatusNotFound, "EndpointNotFound", fmt.Sprintf("No such endpoint '%s'", id))
			return
		}
	}
	s.Submissions = append(s.Submissions, doc)
	taskId := uuid.NewString()
	s.Tasks[taskId] = map[string]any{
		"DATA_TYPE":               "task",
		"task_id":                 taskId,
		"type":                    "TRANSFER",
		"status":                  "ACTIVE",
		"label":                   doc["label"],
		"source_endpoint_id":      doc["source_endpoint"],
		"destination_endpoint_id": doc["destination_endpoint"],
		"files":                   0,
		"files_transferred":       0,
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"DATA_TYPE":     "transfer_result",
		"code":          "Accepted",
		"message":       "The transfer has been accepted and a task has been created and queued for execution",
		"submission_id": doc["submission_id"],
		"task_id":       taskId,
	})
}

func (s *Server) task(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	task, found := s.Tasks[id]
	if !found {
		writeError(w, http.StatusNotFound, "TaskNotFound", fmt.Sprintf("Task ID '%s' not found", id))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) myGroups(w http.ResponseWriter, r *http.Request) {
	groups := s.Groups
	if groups == nil {
		groups = []Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}
