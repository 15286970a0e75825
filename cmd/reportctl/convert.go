package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert FILE",
		Short: "Export a local markdown report",
		Long:  `Converts a markdown file into the selected formats without contacting the backend.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readExportOptions(cmd)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			_, err = writeArtifacts(opts, string(data), cmd.ErrOrStderr())
			return err
		},
	}
}
