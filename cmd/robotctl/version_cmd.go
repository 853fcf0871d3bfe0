package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/robocore/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the robotctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Read()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", info.Module, info.Version, info.GoVersion)
			return err
		},
	}
}
