package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/ledger"
	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/verification"
)

// Balance sheet labels.
const (
	LabelAssets                    = "Tillgångar"
	LabelFixedAssets               = "Anläggningstillgångar"
	LabelCurrentAssets             = "Omsättningstillgångar"
	LabelCash                      = "Kassa och bank"
	LabelTotalAssets               = "Summa tillgångar"
	LabelEquityAndLiabilities      = "Eget kapital och skulder"
	LabelEquity                    = "Eget kapital"
	LabelRetainedEarnings          = "Balanserat resultat"
	LabelYearResult                = "Årets resultat"
	LabelTotalEquity               = "Summa eget kapital"
	LabelLongTermLiabilities       = "Långfristiga skulder"
	LabelShortTermLiabilities      = "Kortfristiga skulder"
	LabelTotalEquityAndLiabilities = "Summa eget kapital och skulder"
)

// BalanceSheet is the K2 balance sheet as of a day. The two totals are
// reported as computed; Check tells whether they agree.
type BalanceSheet struct {
	AsOf                      time.Time          `json:"asOf"`
	Lines                     []model.ReportLine `json:"lines"`
	TotalAssets               decimal.Decimal    `json:"totalAssets"`
	TotalEquityAndLiabilities decimal.Decimal    `json:"totalEquityAndLiabilities"`
}

// MismatchError reports a balance sheet whose sides differ.
type MismatchError struct {
	AsOf                      time.Time
	TotalAssets               decimal.Decimal
	TotalEquityAndLiabilities decimal.Decimal
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("balance sheet %s does not balance: assets %s, equity and liabilities %s, difference %s",
		e.AsOf.Format("2006-01-02"),
		e.TotalAssets.StringFixed(2),
		e.TotalEquityAndLiabilities.StringFixed(2),
		e.TotalAssets.Sub(e.TotalEquityAndLiabilities).StringFixed(2))
}

// Difference is TotalAssets - TotalEquityAndLiabilities.
func (s BalanceSheet) Difference() decimal.Decimal {
	return s.TotalAssets.Sub(s.TotalEquityAndLiabilities)
}

// Check returns a *MismatchError when the balance sheet identity does
// not hold within verification.Tolerance.
func (s BalanceSheet) Check() error {
	if s.Difference().Abs().LessThan(verification.Tolerance) {
		return nil
	}
	return &MismatchError{
		AsOf:                      s.AsOf,
		TotalAssets:               s.TotalAssets,
		TotalEquityAndLiabilities: s.TotalEquityAndLiabilities,
	}
}

type balanceOptions struct {
	fiscalMonth time.Month
	fiscalDay   int
}

// Option configures BalanceSheet.
type Option func(*balanceOptions)

// WithFiscalYearStart sets the first day of the fiscal year (default 1 January).
// Result accounts booked before the fiscal year containing asOf are shown
// as retained earnings, the rest as the year's result.
func WithFiscalYearStart(month time.Month, day int) Option {
	return func(o *balanceOptions) {
		o.fiscalMonth = month
		o.fiscalDay = day
	}
}

// FiscalYearStart returns the first day of the fiscal year containing t.
func FiscalYearStart(t time.Time, month time.Month, day int) time.Time {
	start := time.Date(t.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if t.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	return start
}

// BalanceSheetAsOf builds the balance sheet from every verification dated
// on or before asOf.
func BalanceSheetAsOf(verifications []model.Verification, asOf time.Time, opts ...Option) BalanceSheet {
	o := balanceOptions{fiscalMonth: time.January, fiscalDay: 1}
	for _, opt := range opts {
		opt(&o)
	}

	rows := ledger.RowsFrom(verifications)
	cumulative := ledger.Aggregate(rows, model.Through(asOf))
	current := ledger.Aggregate(rows, model.Period{
		Start: FiscalYearStart(asOf, o.fiscalMonth, o.fiscalDay),
		End:   asOf,
	})

	yearResult := current.Sum(isResultAccount)
	retained := cumulative.Sum(isResultAccount).Sub(yearResult)

	specs := []lineSpec{
		{label: LabelAssets, kind: lineHeader, reset: true},
		{label: LabelFixedAssets, level: 1, types: []model.AccountType{model.TypeFixedAssets}},
		{label: LabelCurrentAssets, level: 1, types: []model.AccountType{model.TypeCurrentAssets}},
		{label: LabelCash, level: 1, types: []model.AccountType{model.TypeCashAndReceivables}},
		{label: LabelTotalAssets, kind: lineTotal},
		{label: LabelEquityAndLiabilities, kind: lineHeader, reset: true},
		{label: LabelEquity, level: 1, types: []model.AccountType{model.TypeEquity}, negate: true},
		{label: LabelRetainedEarnings, level: 1, raw: func() decimal.Decimal { return retained }, negate: true},
		{label: LabelYearResult, level: 1, raw: func() decimal.Decimal { return yearResult }, negate: true},
		{label: LabelTotalEquity, kind: lineTotal},
		{label: LabelLongTermLiabilities, level: 1, types: []model.AccountType{model.TypeLongTermLiabilities}, negate: true},
		{label: LabelShortTermLiabilities, level: 1, types: []model.AccountType{model.TypeShortTermLiabilities}, negate: true},
		{label: LabelTotalEquityAndLiabilities, kind: lineTotal},
	}

	lines := fold(specs, cumulative)
	totalAssets, _ := Value(lines, LabelTotalAssets)
	totalEL, _ := Value(lines, LabelTotalEquityAndLiabilities)
	return BalanceSheet{
		AsOf:                      asOf,
		Lines:                     lines,
		TotalAssets:               totalAssets,
		TotalEquityAndLiabilities: totalEL,
	}
}
