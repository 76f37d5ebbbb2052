// Package commands implements the kassabok CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/kassabok/kassabok/internal/buildinfo"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	dir      string
	logLevel string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:     "kassabok",
		Short:   "Double-entry bookkeeping for Swedish small businesses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "company directory")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level from kassabok.yaml")

	rootCmd.AddCommand(
		newInitCommand(),
		newVerifyCommand(opts),
		newBookCommand(opts),
		newReverseCommand(opts),
		newReportCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newServeCommand(opts),
		newAgentCommand(opts),
	)

	return rootCmd
}
