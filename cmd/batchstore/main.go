package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/batchstore/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┐ ┌─┐┌┬┐┌─┐┬ ┬┌─┐┌┬┐┌─┐┬─┐┌─┐
  ├┴┐├─┤ │ │  ├─┤└─┐ │ │ │├┬┘├┤
  └─┘┴ ┴ ┴ └─┘┴ ┴└─┘ ┴ └─┘┴└─└─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "batchstore",
		Short: "A batching, rate-limited state store server",
		Long: `batchstore serves a reducer-driven state store over HTTP and WebSocket.

Dispatches may carry many actions at once and notify subscribers a
single time. Named channels hold actions back until their limiter
(throttle, debounce or budget) lets them through as one batch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		dispatchCmd(),
		stateCmd(),
		queueCmd(),
		channelsCmd(),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the batchstore banner.
func printBanner() {
	fmt.Print(banner)
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
