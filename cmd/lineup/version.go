package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/lineup"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lineup",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lineup version %s\n", strings.TrimSpace(lineup.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
