package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kassabok/kassabok/internal/export"
	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/verification"
)

func newVerifyCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file.yaml>",
		Short: "Check a verification without booking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCompany(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			v, err := readDraft(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			res := verification.Validate(v.Rows)
			fmt.Fprintf(out, "Debet:   %s\nKredit:  %s\nDiff:    %s\n",
				export.FormatSEK(res.TotalDebit), export.FormatSEK(res.TotalCredit), export.FormatSEK(res.Difference))

			verrs := verification.Check(v, c.chart)
			if len(verrs) == 0 {
				fmt.Fprintln(out, "OK")
				return nil
			}
			for _, ve := range verrs {
				fmt.Fprintf(out, "  %s\n", ve)
			}
			return verification.Rejection(verrs)
		},
	}
}

func newBookCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "book <file.yaml>",
		Short: "Book a verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCompany(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			v, err := readDraft(args[0])
			if err != nil {
				return err
			}
			booked, err := c.ledger.Book(c.context(cmd.Context()), v)
			if err != nil {
				return err
			}
			printVerification(cmd.OutOrStdout(), "Booked", booked)
			return nil
		},
	}
}

func newReverseCommand(opts *globalOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "reverse <verification-id>",
		Short: "Book a verification that offsets an earlier one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseDate(date, today())
			if err != nil {
				return err
			}
			c, err := openCompany(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			rev, err := c.ledger.Reverse(c.context(cmd.Context()), args[0], on)
			if errors.Is(err, verification.ErrNotFound) {
				return fmt.Errorf("no verification %s", args[0])
			}
			if err != nil {
				return err
			}
			printVerification(cmd.OutOrStdout(), "Booked reversal", rev)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reversal date (default today)")
	return cmd
}

func printVerification(w io.Writer, verb string, v model.Verification) {
	fmt.Fprintf(w, "%s %s %s %s\n", verb, v.ID, v.Date.Format(dateLayout), v.Description)
	for _, r := range v.Rows {
		switch {
		case !r.Debit.IsZero():
			fmt.Fprintf(w, "  %s  D %s\n", r.Account, export.FormatSEK(r.Debit))
		default:
			fmt.Fprintf(w, "  %s  K %s\n", r.Account, export.FormatSEK(r.Credit))
		}
	}
}
