package main

import (
	"fmt"

	"github.com/oriumgames/contraptions"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the contraptions version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "contraptions", contraptions.Version)
	},
}
