package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/lineup/internal/cli"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push <line>...",
	Short: "Append lines to the Redis list a session reads from",
	Long: `Pushes each argument as one line onto the Redis list configured with
--redis-url and --redis-key, for a 'lineup run --redis-url ...' session.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := cli.LoadConfig(configPath, flagOverrides(cmd.Flags())...)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := cli.Push(context.Background(), cfg, args); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d line(s) to %s\n", len(args), cfg.Redis.Key)
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
