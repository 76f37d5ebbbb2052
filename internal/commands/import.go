package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kassabok/kassabok/internal/importer"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank exports from import/ as unbooked transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := importer.DefaultRegistry()
			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown bank format %q (known: %s)", format, strings.Join(registry.Formats(), ", "))
			}
			c, err := openCompany(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			results, err := importer.Run(cmd.Context(), c.dir, parser, c.bank)
			out := cmd.OutOrStdout()
			for _, res := range results {
				c.log.Info("bank file imported",
					zap.String("file", res.File),
					zap.Int("transactions", res.Parsed),
					zap.Int("new", res.Added),
				)
				fmt.Fprintf(out, "%s: %d transactions, %d new\n", res.File, res.Parsed, res.Added)
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "Nothing to import")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "se", "bank export format")
	return cmd
}
