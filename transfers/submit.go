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
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dme/dmexfer/auth"
	"github.com/dme/dmexfer/config"
	"github.com/dme/dmexfer/endpoints"
	"github.com/dme/dmexfer/globus"
	"github.com/dme/dmexfer/journal"
)

// anything that can supply authorized Globus service clients
type ServiceProvider interface {
	ServiceClients(ctx context.Context, mappedCollection string) (*globus.TransferClient, *globus.GroupsClient, error)
}

// A Submitter validates and submits transfers, printing a summary of each.
type Submitter struct {
	// Globus settings (access group, web app URL)
	Config config.GlobusConfig
	// supplies Transfer and Groups clients
	Services ServiceProvider
	// named endpoints
	Catalog endpoints.Catalog
	// computes endpoint IDs and paths
	Resolver Resolver
	// transfer journal, opened only after a transfer is submitted (no
	// journal is kept if empty)
	JournalFile string
	// token cache named in recovery guidance
	TokenFile string
	// destination for the summary
	Out io.Writer
	// the current time (defaults to time.Now)
	Now func() time.Time
}

// the outcome of a successful submission
type Submission struct {
	TaskId      string
	Source      ResolvedEndpoint
	Destination ResolvedEndpoint
	Label       string
	// file manager view of the transfer in the Globus web app
	URL string
}

// returns the default label for a transfer submitted at the given time
func DefaultLabel(t time.Time) string {
	return fmt.Sprintf("DME Transfer submitted on %s", t.Format("2006-01-02"))
}

// returns the Globus web app link showing both sides of a transfer
func FileManagerURL(webURL string, source, destination ResolvedEndpoint) string {
	values := url.Values{}
	values.Set("origin_id", source.EndpointId)
	values.Set("origin_path", source.Path)
	values.Set("destination_id", destination.EndpointId)
	values.Set("destination_path", destination.Path)
	return webURL + "/file-manager?" + values.Encode()
}

func (s *Submitter) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Submit resolves the endpoints named by args, checks that the source path
// exists and that the destination path exists (creating it if needed), and
// submits a recursive transfer between them. Nothing is retried: the first
// failure is returned.
func (s *Submitter) Submit(ctx context.Context, args Args) (Submission, error) {
	transferClient, groupsClient, err := s.Services.ServiceClients(ctx, args.MappedCollection())
	if err != nil {
		return Submission{}, err
	}
	if err = auth.ValidateGroupMembership(ctx, groupsClient, s.Config); err != nil {
		if globus.IsAuthError(err) {
			return Submission{}, &ExpiredCredentialsError{TokenFile: s.TokenFile}
		}
		return Submission{}, err
	}

	source, err := s.Resolver.Resolve(Source, args, s.Catalog)
	if err != nil {
		return Submission{}, err
	}
	dest, err := s.Resolver.Resolve(Dest, args, s.Catalog)
	if err != nil {
		return Submission{}, err
	}
	if err = s.describe(ctx, transferClient, Source, source); err != nil {
		return Submission{}, err
	}
	if err = s.describe(ctx, transferClient, Dest, dest); err != nil {
		return Submission{}, err
	}

	if err = s.validateSourcePath(ctx, transferClient, source); err != nil {
		return Submission{}, err
	}
	if err = s.validateDestPath(ctx, transferClient, dest); err != nil {
		return Submission{}, err
	}

	label := args.Label
	if label == "" {
		label = DefaultLabel(s.now())
	}
	data := globus.TransferData{
		SourceEndpoint:      source.EndpointId,
		DestinationEndpoint: dest.EndpointId,
		Label:               label,
	}
	data.AddItem(source.Path, dest.Path, true)
	result, err := transferClient.SubmitTransfer(ctx, data)
	if err != nil {
		return Submission{}, errors.Wrap(err, "transfer submission failed")
	}

	submission := Submission{
		TaskId:      result.TaskId,
		Source:      source,
		Destination: dest,
		Label:       label,
		URL:         FileManagerURL(s.Config.WebURL, source, dest),
	}
	fmt.Fprintf(s.Out, "Submitted transfer: %s\n", submission.TaskId)
	fmt.Fprintf(s.Out, "Get transfer details by running: dme status --task-id %s\n", submission.TaskId)
	fmt.Fprintf(s.Out, "Visit the link below to see the changes: %s\n", submission.URL)

	s.record(submission)
	return submission, nil
}

// prints the display name and path of a resolved endpoint
func (s *Submitter) describe(ctx context.Context, client *globus.TransferClient,
	role Role, endpoint ResolvedEndpoint) error {
	doc, err := client.GetEndpoint(ctx, endpoint.EndpointId)
	if err != nil {
		if globus.IsAuthError(err) {
			return &ExpiredCredentialsError{TokenFile: s.TokenFile}
		}
		return errors.Wrapf(err, "couldn't fetch %s endpoint %s", role.Lower(), endpoint.EndpointId)
	}
	fmt.Fprintf(s.Out, "%s endpoint name: %s\n", role, doc.DisplayName)
	fmt.Fprintf(s.Out, "%s path: %s\n", role, endpoint.Path)
	return nil
}

// the source path must already exist
func (s *Submitter) validateSourcePath(ctx context.Context, client *globus.TransferClient,
	source ResolvedEndpoint) error {
	if _, err := client.OperationLs(ctx, source.EndpointId, source.Path); err != nil {
		return &PathNotFoundError{
			Endpoint: source.EndpointId,
			Path:     source.Path,
			Message:  apiMessage(err),
		}
	}
	return nil
}

// the destination path is created if it can't be listed
func (s *Submitter) validateDestPath(ctx context.Context, client *globus.TransferClient,
	dest ResolvedEndpoint) error {
	_, err := client.OperationLs(ctx, dest.EndpointId, dest.Path)
	if err == nil {
		return nil
	}
	log.Debugf("Listing %s on %s failed (%s); creating it", dest.Path, dest.EndpointId, err)
	if err = client.OperationMkdir(ctx, dest.EndpointId, dest.Path); err != nil {
		return &CreateDirectoryError{
			Endpoint: dest.EndpointId,
			Path:     dest.Path,
			Message:  apiMessage(err),
		}
	}
	fmt.Fprintf(s.Out, "Created directory: %s\n", dest.Path)
	return nil
}

// adds a submission to the journal, if there is one. The transfer is already
// under way, so a failure here only merits a warning.
func (s *Submitter) record(submission Submission) {
	if s.JournalFile == "" {
		return
	}
	if err := s.appendRecord(submission); err != nil {
		log.Warnf("Couldn't record transfer %s in the journal: %s", submission.TaskId, err)
	}
}

func (s *Submitter) appendRecord(submission Submission) error {
	taskId, err := uuid.Parse(submission.TaskId)
	if err != nil {
		return err
	}
	j, err := journal.Open(s.JournalFile)
	if err != nil {
		return err
	}
	defer j.Close()
	return j.RecordTransfer(journal.Record{
		TaskId:              taskId,
		SourceEndpoint:      submission.Source.EndpointId,
		SourcePath:          submission.Source.Path,
		DestinationEndpoint: submission.Destination.EndpointId,
		DestinationPath:     submission.Destination.Path,
		Label:               submission.Label,
		SubmittedAt:         s.now(),
	})
}

// returns the message Globus attached to an API error, or the error text
func apiMessage(err error) string {
	var apiErr *globus.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
