package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kassabok/kassabok/internal/export"
	"github.com/kassabok/kassabok/internal/report"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export SRU declaration files and PDF reports",
	}
	cmd.AddCommand(newExportSRUCommand(opts), newExportPDFCommand(opts))
	return cmd
}

func newExportSRUCommand(opts *globalOptions) *cobra.Command {
	var year int
	var outDir string

	cmd := &cobra.Command{
		Use:   "sru",
		Short: "Write INFO.SRU and BLANKETTER.SRU (INK2R) for a fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCompany(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			period := c.fiscalYear(year)
			vs, err := c.ledger.List(c.context(cmd.Context()), period)
			if err != nil {
				return err
			}
			sheet, err := c.balanceSheet(cmd, period.End)
			if err != nil {
				return err
			}
			if err := sheet.Check(); err != nil {
				return fmt.Errorf("refusing to export: %w", err)
			}

			company := export.Company{
				OrgNumber:  c.cfg.Company.OrgNumber,
				Name:       c.cfg.Company.Name,
				PostalCode: c.cfg.Company.PostalCode,
				City:       c.cfg.Company.City,
			}
			decl := export.Declaration{
				Company:      company,
				FiscalYear:   period,
				Created:      time.Now(),
				Income:       report.IncomeStatementFor(vs, period),
				BalanceSheet: sheet,
			}

			if outDir == "" {
				outDir = filepath.Join(c.dir, "exports", fmt.Sprintf("sru-%d", year))
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", outDir, err)
			}
			if err := writeFile(filepath.Join(outDir, export.InfoFile), func(f *os.File) error {
				return export.WriteInfo(f, company, decl.Created)
			}); err != nil {
				return err
			}
			if err := writeFile(filepath.Join(outDir, export.BlanketterFile), func(f *os.File) error {
				return export.WriteBlanketter(f, decl)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s to %s (%d fields)\n",
				export.InfoFile, export.BlanketterFile, outDir, len(decl.Fields()))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year()-1, "fiscal year (the year it starts in)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default exports/sru-<year>)")
	return cmd
}

func newExportPDFCommand(opts *globalOptions) *cobra.Command {
	var year int
	var asOf string
	var outPath string

	cmd := &cobra.Command{
		Use:       "pdf <income|balance>",
		Short:     "Render a financial statement to PDF",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"income", "balance"},
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(asOf, today())
			if err != nil {
				return err
			}
			c, err := openCompany(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			doc := export.Document{Subtitle: c.cfg.Company.Name}
			switch args[0] {
			case "income":
				period := c.fiscalYear(year)
				vs, err := c.ledger.List(c.context(cmd.Context()), period)
				if err != nil {
					return err
				}
				doc.Title = "Resultaträkning " + period.String()
				doc.Lines = report.IncomeStatementFor(vs, period)
			case "balance":
				sheet, err := c.balanceSheet(cmd, day)
				if err != nil {
					return err
				}
				doc.Title = "Balansräkning per " + day.Format(dateLayout)
				doc.Lines = sheet.Lines
				if err := sheet.Check(); err != nil {
					doc.Warning = err.Error()
				}
			}

			if outPath == "" {
				outPath = filepath.Join(c.dir, "exports", args[0]+".pdf")
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
			}
			if err := writeFile(outPath, func(f *os.File) error { return export.WritePDF(f, doc) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			if doc.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", doc.Warning)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "fiscal year for the income statement")
	cmd.Flags().StringVar(&asOf, "as-of", "", "balance date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default exports/<report>.pdf)")
	return cmd
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
