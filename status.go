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

	"github.com/dme/dmexfer/transfers"
)

func (a *app) statusCommand() *cobra.Command {
	var taskId string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the Globus record of a transfer task",
		Long: `status prints the Globus record of a transfer task as JSON. If the task was
submitted from this machine, its entry in the transfer journal is printed
first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gate, err := a.gate(cmd)
			if err != nil {
				return err
			}
			transferClient, _, err := gate.ServiceClients(cmd.Context(), "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if record, found := transfers.JournalEntry(a.conf.Files.Journal, taskId); found {
				transfers.PrintRecord(out, record)
			}
			return transfers.Status(cmd.Context(), transferClient, taskId, out)
		},
	}
	cmd.Flags().StringVar(&taskId, "task-id", "", "ID of the transfer task")
	if err := cmd.MarkFlagRequired("task-id"); err != nil {
		panic(err)
	}
	return cmd
}
