package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/beanbocchi/blobfs/pkg/sdk"
)

func newPutCommand(o *options) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "put <local-file|-> <path>",
		Short: "Upload a file, reading stdin for -",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := sdk.PushRequest{Path: args[1], ContentType: contentType}

			if args[0] == "-" {
				req.Content = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				info, err := f.Stat()
				if err != nil {
					return err
				}
				req.Content = f
				req.Size = info.Size()
			}

			resp, err := o.client().Push(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", resp.Key, humanize.IBytes(uint64(resp.Size)), resp.Hash)
			return nil
		},
	}
	cmd.Flags().StringVarP(&contentType, "content-type", "t", "", "content type to store, detected by the server when empty")
	return cmd
}

func newCatCommand(o *options) *cobra.Command {
	var hash string

	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Write a file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := o.client().Pull(cmd.Context(), sdk.PullRequest{Path: args[0], Hash: hash}, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&hash, "hash", "", "expected BLAKE3 hex digest")
	return cmd
}

func newLsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List files under a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}

			files, err := o.client().ListFiles(cmd.Context(), prefix)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, f := range files {
				fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.IBytes(uint64(f.Size)), f.LastModified.Format(time.RFC3339), f.Path)
			}
			return w.Flush()
		},
	}
}

func newMvCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <path> <dest-dir>",
		Short: "Move a file into another directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.client().Move(cmd.Context(), sdk.MoveRequest{Source: args[0], DestDir: args[1]})
		},
	}
}

func newExistsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <path>",
		Short: "Report whether a file exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := o.client().Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
}

