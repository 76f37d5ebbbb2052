// Package ledger aggregates verification rows into account balances.
//
// Balances are always raw: debit minus credit. Assets and expenses come
// out positive, liabilities, equity and revenue negative. Presentation
// signs belong to the report package.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

// Balances maps an account number to its raw balance.
type Balances map[string]decimal.Decimal

// RowsFrom flattens verifications into dated ledger rows.
func RowsFrom(verifications []model.Verification) []model.LedgerRow {
	var rows []model.LedgerRow
	for _, v := range verifications {
		for _, r := range v.Rows {
			rows = append(rows, model.LedgerRow{
				VerificationID: v.ID,
				Date:           v.Date,
				AccountNumber:  r.Account,
				Debit:          r.Debit,
				Credit:         r.Credit,
			})
		}
	}
	return rows
}

// Aggregate sums debit - credit per account over rows dated inside period.
func Aggregate(rows []model.LedgerRow, period model.Period) Balances {
	balances := make(Balances)
	for _, r := range rows {
		if !period.Contains(r.Date) {
			continue
		}
		balances[r.AccountNumber] = balances[r.AccountNumber].Add(r.Debit).Sub(r.Credit)
	}
	return balances
}

// AggregateVerifications is Aggregate over the rows of verifications.
func AggregateVerifications(verifications []model.Verification, period model.Period) Balances {
	return Aggregate(RowsFrom(verifications), period)
}

// Total sums every balance. For balanced input it is zero.
func (b Balances) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// Sum adds the balances of the accounts accepted by match.
func (b Balances) Sum(match func(account string) bool) decimal.Decimal {
	total := decimal.Zero
	for acct, v := range b {
		if match(acct) {
			total = total.Add(v)
		}
	}
	return total
}

// Accounts returns the account numbers in ascending order.
func (b Balances) Accounts() []string {
	numbers := make([]string, 0, len(b))
	for n := range b {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	return numbers
}

// AccountBalances returns one AccountBalance per account, ordered by number.
func (b Balances) AccountBalances(period model.Period) []model.AccountBalance {
	out := make([]model.AccountBalance, 0, len(b))
	for _, n := range b.Accounts() {
		out = append(out, model.AccountBalance{
			AccountNumber: n,
			Balance:       b[n],
			Period:        period,
			Year:          period.End.Year(),
		})
	}
	return out
}
