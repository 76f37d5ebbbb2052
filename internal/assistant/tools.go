package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kassabok/kassabok/internal/ledger"
	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/report"
	"github.com/kassabok/kassabok/internal/verification"
)

// Tool names.
const (
	ToolValidateVerification = "validate_verification"
	ToolBookVerification     = "book_verification"
	ToolAccountBalances      = "account_balances"
	ToolIncomeStatement      = "income_statement"
	ToolBalanceSheet         = "balance_sheet"
)

const dateLayout = "2006-01-02"

// Runtime holds the services the default tools act on.
type Runtime struct {
	Ledger   verification.Ledger
	Accounts verification.AccountChecker
	// FiscalMonth and FiscalDay give the first day of the fiscal year.
	FiscalMonth time.Month
	FiscalDay   int
}

// verificationDraft is the shape the completer proposes entries in.
type verificationDraft struct {
	Date        string                  `json:"date"`
	Description string                  `json:"description"`
	Rows        []model.VerificationRow `json:"rows"`
}

// verification leaves Date zero when the draft has none, so Check reports
// it missing.
func (d verificationDraft) verification() (model.Verification, error) {
	v := model.Verification{Description: d.Description, Rows: d.Rows}
	if d.Date == "" {
		return v, nil
	}
	date, err := time.Parse(dateLayout, d.Date)
	if err != nil {
		return v, fmt.Errorf("invalid date %q: want YYYY-MM-DD", d.Date)
	}
	v.Date = date
	return v, nil
}

type validation struct {
	verification.Result
	Errors []string `json:"errors,omitempty"`
}

type periodParams struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type yearParams struct {
	Year int `json:"year"`
}

type asOfParams struct {
	AsOf string `json:"asOf"`
}

type balanceSheetResult struct {
	report.BalanceSheet
	Mismatch string `json:"mismatch,omitempty"`
}

// DefaultTools returns the bookkeeping tools wired to rt.
func DefaultTools(rt Runtime) []Tool {
	if rt.FiscalMonth == 0 {
		rt.FiscalMonth, rt.FiscalDay = time.January, 1
	}
	return []Tool{
		{
			Name:        ToolValidateVerification,
			Description: "Check that a proposed verification balances and uses known accounts",
			Run:         rt.validateVerification,
		},
		{
			Name:        ToolBookVerification,
			Description: "Book a verification in the ledger",
			Mutates:     true,
			Run:         rt.bookVerification,
			Summarize:   summarizeDraft,
		},
		{
			Name:        ToolAccountBalances,
			Description: "Raw balance (debit minus credit) per account for a period",
			Run:         rt.accountBalances,
		},
		{
			Name:        ToolIncomeStatement,
			Description: "K2 income statement for a fiscal year",
			Run:         rt.incomeStatement,
		},
		{
			Name:        ToolBalanceSheet,
			Description: "K2 balance sheet as of a date",
			Run:         rt.balanceSheet,
		},
	}
}

func decode[T any](params json.RawMessage) (T, error) {
	var v T
	if len(params) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, fmt.Errorf("invalid parameters: %w", err)
	}
	return v, nil
}

func (rt Runtime) validateVerification(_ context.Context, params json.RawMessage) (any, error) {
	draft, err := decode[verificationDraft](params)
	if err != nil {
		return nil, err
	}
	v, err := draft.verification()
	if err != nil {
		return nil, err
	}
	out := validation{Result: verification.Validate(v.Rows)}
	if !v.Date.IsZero() {
		for _, ve := range verification.Check(v, rt.Accounts) {
			out.Errors = append(out.Errors, ve.Error())
		}
	}
	return out, nil
}

func (rt Runtime) bookVerification(ctx context.Context, params json.RawMessage) (any, error) {
	draft, err := decode[verificationDraft](params)
	if err != nil {
		return nil, err
	}
	v, err := draft.verification()
	if err != nil {
		return nil, err
	}
	return rt.Ledger.Book(ctx, v)
}

func (rt Runtime) accountBalances(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[periodParams](params)
	if err != nil {
		return nil, err
	}
	period, err := parsePeriod(p)
	if err != nil {
		return nil, err
	}
	vs, err := rt.Ledger.List(ctx, period)
	if err != nil {
		return nil, err
	}
	return ledger.AggregateVerifications(vs, period).AccountBalances(period), nil
}

func (rt Runtime) incomeStatement(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[yearParams](params)
	if err != nil {
		return nil, err
	}
	if p.Year == 0 {
		p.Year = time.Now().Year()
	}
	start := time.Date(p.Year, rt.FiscalMonth, rt.FiscalDay, 0, 0, 0, 0, time.UTC)
	period := model.Period{Start: start, End: start.AddDate(1, 0, -1)}
	vs, err := rt.Ledger.List(ctx, period)
	if err != nil {
		return nil, err
	}
	return report.IncomeStatementFor(vs, period), nil
}

func (rt Runtime) balanceSheet(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[asOfParams](params)
	if err != nil {
		return nil, err
	}
	asOf := time.Now().UTC()
	if p.AsOf != "" {
		if asOf, err = time.Parse(dateLayout, p.AsOf); err != nil {
			return nil, fmt.Errorf("invalid asOf %q: %w", p.AsOf, err)
		}
	}
	vs, err := rt.Ledger.List(ctx, model.Through(asOf))
	if err != nil {
		return nil, err
	}
	out := balanceSheetResult{BalanceSheet: report.BalanceSheetAsOf(vs, asOf, report.WithFiscalYearStart(rt.FiscalMonth, rt.FiscalDay))}
	if err := out.Check(); err != nil {
		out.Mismatch = err.Error()
	}
	return out, nil
}

func parsePeriod(p periodParams) (model.Period, error) {
	var period model.Period
	var err error
	if p.From != "" {
		if period.Start, err = time.Parse(dateLayout, p.From); err != nil {
			return period, fmt.Errorf("invalid from %q: %w", p.From, err)
		}
	}
	if p.To == "" {
		period.End = time.Now().UTC()
		return period, nil
	}
	if period.End, err = time.Parse(dateLayout, p.To); err != nil {
		return period, fmt.Errorf("invalid to %q: %w", p.To, err)
	}
	return period, nil
}

func summarizeDraft(params json.RawMessage) string {
	draft, err := decode[verificationDraft](params)
	if err != nil {
		return "Book verification"
	}
	res := verification.Validate(draft.Rows)
	return fmt.Sprintf("Book %q on %s, %d rows, %s SEK", draft.Description, draft.Date, len(draft.Rows), res.TotalDebit.StringFixed(2))
}
