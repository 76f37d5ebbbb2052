// Package report folds account balances into K2 financial statements.
package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/accounts"
	"github.com/kassabok/kassabok/internal/ledger"
	"github.com/kassabok/kassabok/internal/model"
)

type lineKind int

const (
	lineData lineKind = iota
	lineHeader
	lineTotal
)

// lineSpec describes one statement line. A data line contributes
// raw (or -raw when negate is set) to the running total; a total line
// shows the running total since the last resetting header.
type lineSpec struct {
	label  string
	kind   lineKind
	level  int
	types  []model.AccountType
	raw    func() decimal.Decimal // overrides types
	negate bool
	cost   bool // display the contribution with flipped sign
	reset  bool
	// omitZero drops the line when it contributes nothing.
	omitZero bool
}

func fold(specs []lineSpec, b ledger.Balances) []model.ReportLine {
	lines := make([]model.ReportLine, 0, len(specs))
	running := decimal.Zero
	for _, s := range specs {
		line := model.ReportLine{Label: s.label, Level: s.level}
		switch s.kind {
		case lineHeader:
			line.IsHeader = true
			line.Value = decimal.Zero
			if s.reset {
				running = decimal.Zero
			}
		case lineTotal:
			line.IsTotal = true
			line.Value = running
		default:
			raw := s.rawBalance(b)
			contribution := raw
			if s.negate {
				contribution = raw.Neg()
			}
			running = running.Add(contribution)
			if s.omitZero && contribution.IsZero() {
				continue
			}
			line.Value = contribution
			if s.cost {
				line.Value = contribution.Neg()
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func (s lineSpec) rawBalance(b ledger.Balances) decimal.Decimal {
	if s.raw != nil {
		return s.raw()
	}
	return b.Sum(func(acct string) bool {
		t := accounts.Classify(acct).Type
		for _, want := range s.types {
			if t == want {
				return true
			}
		}
		return false
	})
}

// Value returns the value of the first line with label.
func Value(lines []model.ReportLine, label string) (decimal.Decimal, bool) {
	for _, l := range lines {
		if l.Label == label {
			return l.Value, true
		}
	}
	return decimal.Zero, false
}

// balanceTypes are the account types shown on the balance sheet. Every
// other balance, including accounts the chart cannot place, belongs to the
// result, so the income statement and the sheet's year result agree.
var balanceTypes = []model.AccountType{
	model.TypeFixedAssets,
	model.TypeCurrentAssets,
	model.TypeCashAndReceivables,
	model.TypeEquity,
	model.TypeLongTermLiabilities,
	model.TypeShortTermLiabilities,
}

func isResultAccount(acct string) bool {
	return !slices.Contains(balanceTypes, accounts.Classify(acct).Type)
}
