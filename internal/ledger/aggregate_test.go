package ledger

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassabok/kassabok/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func saleScenario() []model.Verification {
	return []model.Verification{{
		ID:   "A2024-0001",
		Date: date(2024, 1, 15),
		Rows: []model.VerificationRow{
			{Account: "1930", Debit: dec("50000")},
			{Account: "3001", Credit: dec("40000")},
			{Account: "2610", Credit: dec("10000")},
		},
	}}
}

func TestAggregate_SaleScenario(t *testing.T) {
	b := AggregateVerifications(saleScenario(), model.Year(2024))

	assert.True(t, b["1930"].Equal(dec("50000")), "1930 = %s", b["1930"])
	assert.True(t, b["3001"].Equal(dec("-40000")), "3001 = %s", b["3001"])
	assert.True(t, b["2610"].Equal(dec("-10000")), "2610 = %s", b["2610"])
	assert.True(t, b.Total().IsZero())
}

func TestAggregate_PeriodInclusive(t *testing.T) {
	rows := []model.LedgerRow{
		{Date: date(2023, 12, 31), AccountNumber: "1930", Debit: dec("1")},
		{Date: date(2024, 1, 1), AccountNumber: "1930", Debit: dec("10")},
		{Date: time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), AccountNumber: "1930", Debit: dec("100")},
		{Date: date(2025, 1, 1), AccountNumber: "1930", Debit: dec("1000")},
	}
	b := Aggregate(rows, model.Year(2024))
	assert.True(t, b["1930"].Equal(dec("110")), "got %s", b["1930"])

	b = Aggregate(rows, model.Through(date(2024, 1, 1)))
	assert.True(t, b["1930"].Equal(dec("11")), "got %s", b["1930"])
}

func TestAggregate_Empty(t *testing.T) {
	b := Aggregate(nil, model.Year(2024))
	assert.Empty(t, b)
	assert.True(t, b.Total().IsZero())
}

func TestBalances_SumAndAccounts(t *testing.T) {
	b := AggregateVerifications(saleScenario(), model.Year(2024))
	assert.Equal(t, []string{"1930", "2610", "3001"}, b.Accounts())

	liabilities := b.Sum(func(acct string) bool { return acct[0] == '2' })
	assert.True(t, liabilities.Equal(dec("-10000")))
}

func TestBalances_AccountBalances(t *testing.T) {
	period := model.Year(2024)
	abs := AggregateVerifications(saleScenario(), period).AccountBalances(period)
	require.Len(t, abs, 3)
	assert.Equal(t, "1930", abs[0].AccountNumber)
	assert.Equal(t, 2024, abs[0].Year)
	assert.Equal(t, period, abs[0].Period)
}

// randomBalanced builds n balanced verifications over random accounts
// with amounts in öre.
func randomBalanced(r *rand.Rand, n int) []model.Verification {
	accounts := []string{"1510", "1930", "2440", "2610", "3001", "4010", "5010", "7210", "8410", "8910"}
	var vs []model.Verification
	for i := 0; i < n; i++ {
		legs := 2 + r.Intn(4)
		var rows []model.VerificationRow
		total := decimal.Zero
		for j := 0; j < legs-1; j++ {
			amt := decimal.New(int64(1+r.Intn(10_000_000)), -2)
			total = total.Add(amt)
			rows = append(rows, model.VerificationRow{Account: accounts[r.Intn(len(accounts))], Debit: amt})
		}
		rows = append(rows, model.VerificationRow{Account: accounts[r.Intn(len(accounts))], Credit: total})
		vs = append(vs, model.Verification{
			ID:   fmt.Sprintf("A2024-%04d", i+1),
			Date: date(2024, 1+r.Intn(12), 1+r.Intn(28)),
			Rows: rows,
		})
	}
	return vs
}

func TestAggregate_DoubleEntryIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		vs := randomBalanced(r, 1+r.Intn(40))
		b := AggregateVerifications(vs, model.Year(2024))
		assert.True(t, b.Total().IsZero(), "round %d: total %s", round, b.Total())

		// Any sub-period of whole verifications also balances.
		h := AggregateVerifications(vs, model.Period{Start: date(2024, 3, 1), End: date(2024, 8, 31)})
		assert.True(t, h.Total().IsZero(), "round %d: half-year total %s", round, h.Total())
	}
}
