// Package main provides the asmbridge command, a hosted model of the
// USB4-to-NVMe bridge controller firmware.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "asmbridge",
	Short: "asmbridge runs the bridge controller firmware model against " +
		"emulated hardware.",
	Long: `asmbridge runs the bridge controller firmware model against ` +
		`emulated hardware. The register-polling hardware contract is ` +
		`substituted by hosted models, so command issue, completion ` +
		`handling, and power transitions execute without the chip.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
