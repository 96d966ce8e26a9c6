package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docbridge",
	Short: "Document conversion proxy",
	Long: `docbridge routes document conversion requests across a pool of
conversion services (unstructured-io, LibreOffice, pandoc, Gotenberg),
falling back between them and chaining multi-step conversions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
