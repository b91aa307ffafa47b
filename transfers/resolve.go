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
	"github.com/google/uuid"

	"github.com/dme/dmexfer/endpoints"
)

// the role an endpoint plays in a transfer
type Role int

const (
	Source Role = iota
	Dest
)

func (r Role) String() string {
	if r == Source {
		return "Source"
	}
	return "Destination"
}

// returns the role's name in lower case, for use mid-sentence
func (r Role) Lower() string {
	if r == Source {
		return "source"
	}
	return "destination"
}

// This type holds the command-line arguments that select the endpoints and
// paths of a transfer. An endpoint is given either by its index in the
// endpoint data file or by an explicit endpoint ID.
type Args struct {
	// index of the named source endpoint (ignored if SourceId is set)
	Source int
	// explicit source endpoint ID and path
	SourceId, SourcePath string
	// dataset appended to a named source endpoint's default path
	Dataset string
	// index of the named destination endpoint (ignored if DestId is set)
	Dest int
	// explicit destination endpoint ID
	DestId string
	// destination path: relative to a writable named endpoint's default
	// path, or used as is
	DestPath string
	// label for the Globus task (a dated default is used if empty)
	Label string
}

// returns the explicit endpoint ID that needs a data_access scope at login:
// the source ID if one was given, otherwise the destination ID (possibly "")
func (a Args) MappedCollection() string {
	if a.SourceId != "" {
		return a.SourceId
	}
	return a.DestId
}

// an endpoint ID and path computed for one side of a transfer
type ResolvedEndpoint struct {
	EndpointId string
	Path       string
}

// A Resolver turns command-line arguments into resolved endpoints.
type Resolver struct {
	// generates the leaf directory used when no destination path is given;
	// must return a different value on every call
	NewLeaf func() string
}

// returns a resolver that names fresh destination directories "dme_<uuid>"
func NewResolver() Resolver {
	return Resolver{
		NewLeaf: func() string {
			return "dme_" + uuid.NewString()
		},
	}
}

// Resolve computes the endpoint ID and path for the given role.
func (r Resolver) Resolve(role Role, args Args, catalog endpoints.Catalog) (ResolvedEndpoint, error) {
	if role == Source {
		return r.resolveSource(args, catalog)
	}
	return r.resolveDest(args, catalog)
}

func (r Resolver) resolveSource(args Args, catalog endpoints.Catalog) (ResolvedEndpoint, error) {
	if args.SourceId != "" {
		if !endpoints.IsValidId(args.SourceId) {
			return ResolvedEndpoint{}, &InvalidEndpointIdError{Role: Source, Id: args.SourceId}
		}
		return ResolvedEndpoint{EndpointId: args.SourceId, Path: args.SourcePath}, nil
	}
	if args.Source == 0 {
		return ResolvedEndpoint{}, &MissingEndpointError{Role: Source}
	}
	d, err := catalog.Lookup(args.Source)
	if err != nil {
		return ResolvedEndpoint{}, err
	}
	return ResolvedEndpoint{EndpointId: d.Id, Path: d.Paths.Source + args.Dataset}, nil
}

func (r Resolver) resolveDest(args Args, catalog endpoints.Catalog) (ResolvedEndpoint, error) {
	// the writable flag only applies to named endpoints
	if args.DestId != "" {
		if !endpoints.IsValidId(args.DestId) {
			return ResolvedEndpoint{}, &InvalidEndpointIdError{Role: Dest, Id: args.DestId}
		}
		return ResolvedEndpoint{EndpointId: args.DestId, Path: args.DestPath}, nil
	}
	if args.Dest == 0 {
		return ResolvedEndpoint{}, &MissingEndpointError{Role: Dest}
	}
	d, err := catalog.Lookup(args.Dest)
	if err != nil {
		return ResolvedEndpoint{}, err
	}

	leaf := args.DestPath
	if leaf == "" {
		leaf = r.NewLeaf()
	}
	if d.IsWritable() {
		return ResolvedEndpoint{EndpointId: d.Id, Path: d.Paths.Dest + leaf}, nil
	}
	return ResolvedEndpoint{EndpointId: d.Id, Path: leaf}, nil
}
