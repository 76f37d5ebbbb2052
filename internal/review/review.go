// Package review assembles the monthly review from independent sources.
package review

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kassabok/kassabok/internal/fanout"
	"github.com/kassabok/kassabok/internal/logging"
	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/report"
	"github.com/kassabok/kassabok/internal/status"
)

// Section names reported in Review.Failed.
const (
	SectionVerifications = "verifications"
	SectionInvoices      = "invoices"
	SectionTransactions  = "transactions"
)

// Sources are the read queries behind a review.
type Sources interface {
	Verifications(ctx context.Context, period model.Period) ([]model.Verification, error)
	Invoices(ctx context.Context, period model.Period) ([]model.Invoice, error)
	Transactions(ctx context.Context, period model.Period) ([]model.BankTransaction, error)
}

// Review summarizes one month. Sections whose query failed are left empty
// and named in Failed; Partial is set when any did.
type Review struct {
	Year              int                 `json:"year"`
	Month             int                 `json:"month"`
	VerificationCount int                 `json:"verificationCount"`
	Result            decimal.NullDecimal `json:"result"`
	Invoices          []status.Bucket     `json:"invoices"`
	Transactions      []status.Bucket     `json:"transactions"`
	Partial           bool                `json:"partial"`
	Failed            []string            `json:"failed,omitempty"`
}

// Build runs every query concurrently and never retries.
func Build(ctx context.Context, src Sources, year, month int) Review {
	period := model.Month(year, month)
	log := logging.FromContext(ctx)

	var g errgroup.Group
	verifications := fanout.Go(ctx, &g, func(ctx context.Context) ([]model.Verification, error) {
		return src.Verifications(ctx, period)
	})
	invoices := fanout.Go(ctx, &g, func(ctx context.Context) ([]model.Invoice, error) {
		return src.Invoices(ctx, period)
	})
	transactions := fanout.Go(ctx, &g, func(ctx context.Context) ([]model.BankTransaction, error) {
		return src.Transactions(ctx, period)
	})
	_ = g.Wait()

	r := Review{Year: year, Month: month}
	fail := func(section string, err error) {
		log.Warn("review section failed", zap.String("section", section), zap.Error(err))
		r.Partial = true
		r.Failed = append(r.Failed, section)
	}

	if res := verifications(); res.OK() {
		r.VerificationCount = len(res.Value)
		lines := report.IncomeStatementFor(res.Value, period)
		if v, ok := report.Value(lines, report.LabelNetResult); ok {
			r.Result = decimal.NewNullDecimal(v)
		}
	} else {
		fail(SectionVerifications, res.Err)
	}

	if res := invoices(); res.OK() {
		r.Invoices = status.GroupByStatus(res.Value, func(i model.Invoice) string {
			return string(i.Status)
		}, status.InvoiceVariants, string(model.InvoiceDraft))
	} else {
		fail(SectionInvoices, res.Err)
	}

	if res := transactions(); res.OK() {
		r.Transactions = status.GroupByStatus(res.Value, func(t model.BankTransaction) string {
			return string(t.Status)
		}, status.TransactionVariants, string(model.TransactionUnbooked))
	} else {
		fail(SectionTransactions, res.Err)
	}

	return r
}
