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
	"strings"
)

// Globus Auth scope strings for the services the tool talks to
const (
	OpenIdScope   = "openid"
	EmailScope    = "email"
	ProfileScope  = "profile"
	GroupsScope   = "urn:globus:auth:scope:groups.api.globus.org:all"
	TransferScope = "urn:globus:auth:scope:transfer.api.globus.org:all"
)

// A Scope is a Globus Auth scope along with any scopes that depend on it.
// Dependent scopes are rendered in brackets after their parent, and optional
// scopes are prefixed with "*", e.g.
//
//	urn:globus:auth:scope:transfer.api.globus.org:all[*https://auth.globus.org/scopes/<id>/data_access]
type Scope struct {
	Name         string
	Optional     bool
	Dependencies []Scope
}

// adds a dependent scope
func (s *Scope) AddDependency(dependency Scope) {
	s.Dependencies = append(s.Dependencies, dependency)
}

func (s Scope) String() string {
	var b strings.Builder
	if s.Optional {
		b.WriteString("*")
	}
	b.WriteString(s.Name)
	if len(s.Dependencies) > 0 {
		deps := make([]string, len(s.Dependencies))
		for i, dep := range s.Dependencies {
			deps[i] = dep.String()
		}
		b.WriteString("[")
		b.WriteString(strings.Join(deps, " "))
		b.WriteString("]")
	}
	return b.String()
}

// returns the optional data_access scope for a mapped collection
func DataAccessScope(collectionId string) Scope {
	return Scope{
		Name:     fmt.Sprintf("https://auth.globus.org/scopes/%s/data_access", collectionId),
		Optional: true,
	}
}

// returns the scopes requested at login. If a mapped collection is given, the
// Transfer scope carries a dependent data_access scope for it.
func RequestedScopes(mappedCollection string) []Scope {
	transfer := Scope{Name: TransferScope}
	if mappedCollection != "" {
		transfer.AddDependency(DataAccessScope(mappedCollection))
	}
	return []Scope{
		{Name: OpenIdScope},
		{Name: EmailScope},
		{Name: ProfileScope},
		{Name: GroupsScope},
		transfer,
	}
}

// renders scopes as strings
func scopeStrings(scopes []Scope) []string {
	strs := make([]string, len(scopes))
	for i, scope := range scopes {
		strs[i] = scope.String()
	}
	return strs
}
