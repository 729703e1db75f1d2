package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/lineup/internal/cli"
	"github.com/aretw0/lineup/internal/config"
	"github.com/aretw0/lineup/pkg/parser"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive echo session",
	Long: `Reads lines one at a time, parses them and prints the result as YAML.
Lines typed while the previous one is still being handled are discarded
(try --delay 2s to see it).`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		logJSON, _ := cmd.Flags().GetBool("log-json")

		opts := cli.RunOptions{
			ConfigPath: configPath,
			LogJSON:    logJSON,
			Overrides:  flagOverrides(cmd.Flags()),
		}
		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.String("prompt", "", "Prompt shown when lineup is ready for input")
	fs.StringP("parser", "p", "", "Line parser: "+strings.Join(parser.Names(), ", "))
	fs.Int("history-size", 0, "Number of lines kept for recall")
	fs.Int("max-input-size", 0, "Reject lines longer than this many bytes")
	fs.Duration("delay", 0, "Wait this long before echoing each line")
	fs.Bool("render", false, "Render the echo through the markdown renderer")
	fs.Bool("start-suppressed", false, "Discard input until lineup is told otherwise")
	fs.String("seed", "", "Handle this line before reading any input")
	fs.String("status-addr", "", "Serve /health, /session, /metrics and /events on this address")
	fs.Bool("debug", false, "Enable debug logging to stderr")
	fs.Bool("log-json", false, "Write debug logs as JSON")
}

// flagOverrides turns the flags the user actually set into config overrides.
func flagOverrides(fs *pflag.FlagSet) []cli.Override {
	var out []cli.Override
	str := func(name string, set func(*config.Config, string)) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			out = append(out, func(c *config.Config) { set(c, v) })
		}
	}
	num := func(name string, set func(*config.Config, int)) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			out = append(out, func(c *config.Config) { set(c, v) })
		}
	}
	flag := func(name string, set func(*config.Config, bool)) {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			out = append(out, func(c *config.Config) { set(c, v) })
		}
	}

	str("prompt", func(c *config.Config, v string) { c.Prompt = v })
	str("parser", func(c *config.Config, v string) { c.Parser = v })
	str("seed", func(c *config.Config, v string) { c.Seed = v })
	str("status-addr", func(c *config.Config, v string) { c.Status.Addr = v })
	str("redis-url", func(c *config.Config, v string) { c.Redis.URL = v })
	str("redis-key", func(c *config.Config, v string) { c.Redis.Key = v })
	num("history-size", func(c *config.Config, v int) { c.HistorySize = v })
	num("max-input-size", func(c *config.Config, v int) { c.MaxInputSize = v })
	flag("render", func(c *config.Config, v bool) { c.Render = v })
	flag("start-suppressed", func(c *config.Config, v bool) { c.StartSuppressed = v })
	flag("debug", func(c *config.Config, v bool) { c.Debug = v })

	if fs.Changed("delay") {
		v, _ := fs.GetDuration("delay")
		out = append(out, func(c *config.Config) { c.Delay = v })
	}
	return out
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags())

	// 'run' is the default command.
	addRunFlags(rootCmd.Flags())
	rootCmd.Run = runCmd.Run
}
