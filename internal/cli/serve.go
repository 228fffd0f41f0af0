package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beanbocchi/blobfs/config"
	"github.com/beanbocchi/blobfs/internal"
)

func newServeCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return internal.Start(ctx, cfg)
		},
	}

	defaultPath := os.Getenv(config.EnvPrefix + "_CONFIG")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	cmd.Flags().StringVarP(&path, "config", "c", defaultPath, "config file (.yaml or .properties)")
	return cmd
}
