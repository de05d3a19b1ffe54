package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCandidatesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List candidates and their booking status",
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := opts.client().ListCandidates(cmd.Context())
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No candidates")
				return nil
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"ID", "Name", "Phone", "Notice", "Current CTC", "Expected CTC", "Booking"})
			for _, c := range candidates {
				tw.AppendRow(table.Row{strconv.FormatInt(c.ID, 10), c.Name, c.Phone, c.NoticePeriod, c.CurrentCTC, c.ExpectedCTC, c.BookingStatus})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}
}
