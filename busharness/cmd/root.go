// Package cmd provides the command-line interface of busharness.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "busharness",
	Short: "Step a design under test through reset and bus traffic.",
	Long: `busharness drives a design under test over a tagged, ` +
		`backpressured memory bus. It sequences reset, issues requests, ` +
		`matches responses and stops when the design finishes or a ` +
		`deadline passes.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
