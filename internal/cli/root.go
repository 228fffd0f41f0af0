package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/beanbocchi/blobfs/pkg/sdk"
)

const defaultServer = "http://localhost:8080/api/v1"

type options struct {
	server string
}

func (o *options) client() *sdk.Client {
	return sdk.NewClient(o.server)
}

// NewRootCommand returns the blobfs command tree.
func NewRootCommand() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:           "blobfs",
		Short:         "A file system over object storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("BLOBFS_SERVER")
	if server == "" {
		server = defaultServer
	}
	cmd.PersistentFlags().StringVar(&o.server, "server", server, "base URL of the blobfs API")

	cmd.AddCommand(
		newServeCommand(),
		newPutCommand(o),
		newCatCommand(o),
		newLsCommand(o),
		newMvCommand(o),
		newExistsCommand(o),
		newSessionsCommand(o),
	)
	return cmd
}
