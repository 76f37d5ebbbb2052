// Package verification validates and stores journal entries.
package verification

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

// Tolerance is the largest debit/credit difference still treated as balanced.
var Tolerance = decimal.New(1, -2)

// Result is the outcome of a balance check over a set of rows.
type Result struct {
	Balanced    bool            `json:"balanced"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Difference  decimal.Decimal `json:"difference"`
}

// Validate sums debits and credits across rows. It does not look at
// accounts or row count; Check does.
func Validate(rows []model.VerificationRow) Result {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, row := range rows {
		totalDebit = totalDebit.Add(row.Debit)
		totalCredit = totalCredit.Add(row.Credit)
	}
	diff := totalDebit.Sub(totalCredit).Abs()
	return Result{
		Balanced:    diff.LessThan(Tolerance),
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Difference:  diff,
	}
}

// Rule names a booking rule enforced by Check.
type Rule string

const (
	RuleRows     Rule = "rows"
	RuleBalanced Rule = "balanced"
	RuleSide     Rule = "side"
	RuleAccount  Rule = "account"
	RuleAmount   Rule = "amount"
	RuleDecimals Rule = "decimals"
	RuleDate     Rule = "date"
)

// ValidationError describes a single rule violation. Row is the
// zero-based row index, or -1 when the error concerns the whole entry.
type ValidationError struct {
	Rule        Rule
	Row         int
	Description string
}

func (e ValidationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: %s", e.Rule, e.Description)
	}
	return fmt.Sprintf("%s [row %d]: %s", e.Rule, e.Row+1, e.Description)
}

// AccountChecker tests whether an account number exists in the chart.
type AccountChecker interface {
	Exists(number string) bool
}

var hundred = decimal.NewFromInt(100)

// Check enforces the rules a verification must pass before it is booked.
func Check(v model.Verification, accounts AccountChecker) []ValidationError {
	var errs []ValidationError

	if v.Date.IsZero() {
		errs = append(errs, ValidationError{Rule: RuleDate, Row: -1, Description: "date is required"})
	}

	if len(v.Rows) == 0 {
		errs = append(errs, ValidationError{Rule: RuleRows, Row: -1, Description: "verification has no rows"})
		return errs
	}

	if res := Validate(v.Rows); !res.Balanced {
		errs = append(errs, ValidationError{
			Rule:        RuleBalanced,
			Row:         -1,
			Description: fmt.Sprintf("debits (%s) != credits (%s), difference %s", res.TotalDebit.StringFixed(2), res.TotalCredit.StringFixed(2), res.Difference.StringFixed(2)),
		})
	}

	for i, row := range v.Rows {
		if row.Debit.IsNegative() || row.Credit.IsNegative() {
			errs = append(errs, ValidationError{Rule: RuleAmount, Row: i, Description: "amounts must not be negative"})
		}

		if row.Debit.IsZero() == row.Credit.IsZero() {
			errs = append(errs, ValidationError{Rule: RuleSide, Row: i, Description: "row must have exactly one of debit or credit"})
		}

		if accounts != nil && !accounts.Exists(row.Account) {
			errs = append(errs, ValidationError{Rule: RuleAccount, Row: i, Description: fmt.Sprintf("unknown account %q", row.Account)})
		}

		for _, amount := range []decimal.Decimal{row.Debit, row.Credit} {
			scaled := amount.Mul(hundred)
			if !scaled.Equal(scaled.Truncate(0)) {
				errs = append(errs, ValidationError{Rule: RuleDecimals, Row: i, Description: fmt.Sprintf("amount %s has more than 2 decimal places", amount)})
			}
		}
	}

	return errs
}
