package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lineup",
	Short: "Lineup is a one-input-at-a-time interactive line reader",
	Long: `Lineup reads lines from a terminal, a pipe or a Redis list and hands them,
one at a time, to a listener. Input typed while a line is being handled is
discarded instead of queued.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./lineup.yaml when present)")
	rootCmd.PersistentFlags().String("redis-url", "", "Read lines from a Redis list at this URL")
	rootCmd.PersistentFlags().String("redis-key", "", "Redis list holding the input lines")
}
