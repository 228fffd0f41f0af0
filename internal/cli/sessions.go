package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/beanbocchi/blobfs/pkg/sdk"
)

func newSessionsCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and abort upload sessions",
	}
	cmd.AddCommand(newSessionsListCommand(o), newSessionsAbortCommand(o))
	return cmd
}

func newSessionsListCommand(o *options) *cobra.Command {
	var (
		state string
		page  int32
		limit int32
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upload sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &sdk.ListSessionsRequest{State: state}
			if cmd.Flags().Changed("page") {
				req.Page = &page
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}

			result, err := o.client().ListSessions(cmd.Context(), req)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range result.Data {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.UploadID, s.State, s.Parts, humanize.IBytes(uint64(s.Bytes)), s.ObjectKey)
			}
			if result.Pagination.NextPage != nil {
				fmt.Fprintf(w, "next page: %d\n", *result.Pagination.NextPage)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "filter by state (open, completed, failed, aborted)")
	cmd.Flags().Int32Var(&page, "page", 1, "page number")
	cmd.Flags().Int32Var(&limit, "limit", 10, "sessions per page")
	return cmd
}

func newSessionsAbortCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "abort <upload-id>",
		Short: "Discard the stored parts of an unfinished upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.client().AbortSession(cmd.Context(), args[0])
		},
	}
}
