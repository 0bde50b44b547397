package cmd

import (
	"os"

	"github.com/echoping/echoping/core"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	count    int
	interval float64
	ttl      int
	deadline int
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "echoping <address>",
	Short: "echoping sends ICMP echo probes and measures round-trip times",
	Long: "echoping sends an ICMP echo request to the target address once per interval,\n" +
		"listens for the matching replies and prints one line per reply or timeout.\n" +
		"It needs a raw ICMP socket, so it is usually run as root.",
	Version:      version,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := core.DefaultSettings()
		settings.MaxCount = count
		settings.Interval = interval
		settings.TTL = ttl
		settings.Deadline = deadline
		if verbose {
			settings.LoggingLevel = 5 // logrus debug
		}

		runner, err := newRunner(args[0], settings)
		if err != nil {
			return err
		}

		runner.Start()
		return runner.Wait()
	},
}

func init() {
	rootCmd.SetOut(os.Stderr)
	rootCmd.Flags().IntVarP(&count, "count", "c", -1, "stop after sending this many probes")
	rootCmd.Flags().Float64VarP(&interval, "interval", "i", 1, "seconds between probes")
	rootCmd.Flags().IntVarP(&ttl, "ttl", "t", 64, "IP time to live of outgoing probes")
	rootCmd.Flags().IntVarP(&deadline, "deadline", "w", -1, "stop after this many seconds regardless of results")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log session diagnostics")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
