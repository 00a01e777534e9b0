package main

import (
	"log"

	"github.com/spf13/cobra"
)

// Build the root command of the CLI with every sub-command registered.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "slice-cli",
		Short:         "Slice Vault CLI",
		Long:          `Slice Vault CLI to resize and render well-log images and to manage the object store`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newResizeCmd(),
		newRenderCmd(),
		newUploadCmd(),
		newListCmd(),
		newEnsureBucketCmd(),
	)
	return rootCmd
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		log.Fatal(err)
	}
}
