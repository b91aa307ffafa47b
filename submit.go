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

package main

import (
	"github.com/spf13/cobra"

	"github.com/dme/dmexfer/endpoints"
	"github.com/dme/dmexfer/transfers"
)

func (a *app) submitCommand() *cobra.Command {
	var args transfers.Args
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a transfer between two endpoints",
		Long: `Submit a recursive Globus transfer. Each side of the transfer is either a
DME endpoint, given by its index in the endpoint data file, or any other
Globus collection, given by ID together with a path.

A DME source transfers the dataset beneath its default source path. A
writable DME destination receives the transfer beneath its default
destination path. If no destination path is given, a new directory named
dme_<uuid> is created for the transfer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := endpoints.Load(a.conf.Files.Endpoints)
			if err != nil {
				return err
			}
			gate, err := a.gate(cmd)
			if err != nil {
				return err
			}
			submitter := transfers.Submitter{
				Config:      a.conf.Globus,
				Services:    gate,
				Catalog:     catalog,
				Resolver:    transfers.NewResolver(),
				JournalFile: a.conf.Files.Journal,
				TokenFile:   a.conf.Files.Tokens,
				Out:         cmd.OutOrStdout(),
			}
			_, err = submitter.Submit(cmd.Context(), args)
			return err
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&args.Source, "source", 0, "index of the DME source endpoint")
	flags.StringVar(&args.SourceId, "source-id", "", "ID of a non-DME source endpoint")
	flags.StringVar(&args.SourcePath, "source-path", "", "path on the non-DME source endpoint")
	flags.StringVar(&args.Dataset, "dataset", "", "dataset beneath the DME source endpoint's default path")
	flags.IntVar(&args.Dest, "dest", 0, "index of the DME destination endpoint")
	flags.StringVar(&args.DestId, "dest-id", "", "ID of a non-DME destination endpoint")
	flags.StringVar(&args.DestPath, "dest-path", "", "destination path")
	flags.StringVar(&args.Label, "label", "", "label for the transfer task")
	cmd.MarkFlagsMutuallyExclusive("source", "source-id")
	cmd.MarkFlagsMutuallyExclusive("dest", "dest-id")
	cmd.MarkFlagsOneRequired("source", "source-id")
	cmd.MarkFlagsOneRequired("dest", "dest-id")
	cmd.MarkFlagsRequiredTogether("source-id", "source-path")
	return cmd
}
