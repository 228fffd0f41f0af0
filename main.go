package main

import (
	"fmt"
	"os"

	"github.com/beanbocchi/blobfs/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "blobfs: %v\n", err)
		os.Exit(1)
	}
}
