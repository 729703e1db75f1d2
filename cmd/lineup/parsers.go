package main

import (
	"fmt"

	"github.com/aretw0/lineup/pkg/parser"
	"github.com/spf13/cobra"
)

var parsersCmd = &cobra.Command{
	Use:   "parsers",
	Short: "List the parsers accepted by --parser",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range parser.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(parsersCmd)
}
