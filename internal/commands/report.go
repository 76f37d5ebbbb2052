package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kassabok/kassabok/internal/export"
	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/report"
)

func newReportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print financial statements",
	}
	cmd.AddCommand(newReportIncomeCommand(opts), newReportBalanceCommand(opts))
	return cmd
}

func newReportIncomeCommand(opts *globalOptions) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "income",
		Short: "Print the income statement (resultaträkning) for a fiscal year",
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
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Resultaträkning %s\n\n", period)
			return printLines(out, report.IncomeStatementFor(vs, period))
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "fiscal year (the year it starts in)")
	return cmd
}

func newReportBalanceCommand(opts *globalOptions) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the balance sheet (balansräkning) as of a date",
		Args:  cobra.NoArgs,
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

			sheet, err := c.balanceSheet(cmd, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Balansräkning per %s\n\n", day.Format(dateLayout))
			if err := printLines(out, sheet.Lines); err != nil {
				return err
			}
			// A mismatch is printed and reported, never adjusted.
			return sheet.Check()
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "balance date YYYY-MM-DD (default today)")
	return cmd
}

func (c *company) balanceSheet(cmd *cobra.Command, asOf time.Time) (report.BalanceSheet, error) {
	vs, err := c.ledger.List(c.context(cmd.Context()), model.Through(asOf))
	if err != nil {
		return report.BalanceSheet{}, err
	}
	return report.BalanceSheetAsOf(vs, asOf, report.WithFiscalYearStart(c.fiscalMonth, c.fiscalDay)), nil
}

func printLines(w io.Writer, lines []model.ReportLine) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, l := range lines {
		label := strings.Repeat("  ", l.Level) + l.Label
		if l.IsHeader {
			fmt.Fprintf(tw, "%s\t\n", label)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, export.FormatSEK(l.Value))
	}
	return tw.Flush()
}
