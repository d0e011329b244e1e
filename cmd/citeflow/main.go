// Package main provides the citeflow CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent flags shared by every command.
var (
	humanOutput bool
	configPath  string
	verbose     bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	code := ExitSuccess
	if err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		code = ExitError
	}
	os.Exit(code)
}

var rootCmd = &cobra.Command{
	Use:   "citeflow",
	Short: "Turn a folder of reference PDFs into a BibTeX library",
	Long: `citeflow resolves reference PDFs to BibTeX entries.

Each PDF is tried in order against:
  1. DOI lookup via doi.org
  2. Title search on Semantic Scholar
  3. Manual entry prompts

Accepted entries are appended to references.bib and the PDF is renamed
{Surname}{Year}.pdf. PDFs nothing resolves are moved to rejected/ and
listed in rejected/rejected.md.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}
