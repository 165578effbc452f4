// Package cmd defines the slotwatch CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slotwatch",
	Short: "CoWIN vaccine slot watcher and notifier",
	Long: "Polls the CoWIN public API for open 18+ vaccination slots in watched\n" +
		"pincodes and districts, and fans alerts out to Telegram, Twitter and\n" +
		"email subscribers.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
