package report

import (
	"errors"
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

func ver(id string, d time.Time, rows ...model.VerificationRow) model.Verification {
	return model.Verification{ID: id, Date: d, Rows: rows}
}

func debit(acct, amount string) model.VerificationRow {
	return model.VerificationRow{Account: acct, Debit: dec(amount)}
}

func credit(acct, amount string) model.VerificationRow {
	return model.VerificationRow{Account: acct, Credit: dec(amount)}
}

func requireValue(t *testing.T, lines []model.ReportLine, label, want string) {
	t.Helper()
	got, ok := Value(lines, label)
	require.True(t, ok, "missing line %q", label)
	assert.True(t, got.Equal(dec(want)), "%s = %s, want %s", label, got, want)
}

func yearOfTrading() []model.Verification {
	return []model.Verification{
		ver("A2024-0001", date(2024, 1, 2), debit("1930", "50000"), credit("2081", "50000")),
		ver("A2024-0002", date(2024, 1, 15), debit("1930", "50000"), credit("3001", "40000"), credit("2610", "10000")),
		ver("A2024-0003", date(2024, 2, 1), debit("4010", "8000"), debit("2640", "2000"), credit("1930", "10000")),
		ver("A2024-0004", date(2024, 3, 1), debit("5010", "6000"), credit("1930", "6000")),
		ver("A2024-0005", date(2024, 4, 25), debit("7210", "15000"), credit("1930", "15000")),
		ver("A2024-0006", date(2024, 6, 30), debit("1930", "500"), credit("8310", "500")),
		ver("A2024-0007", date(2024, 12, 31), debit("8910", "2500"), credit("2510", "2500")),
	}
}

func TestIncomeStatement_SaleScenario(t *testing.T) {
	vs := []model.Verification{
		ver("A2024-0001", date(2024, 1, 15), debit("1930", "50000"), credit("3001", "40000"), credit("2610", "10000")),
	}
	lines := IncomeStatement(vs, 2024)

	requireValue(t, lines, LabelNetSales, "40000")
	requireValue(t, lines, LabelOperatingResult, "40000")
	requireValue(t, lines, LabelNetResult, "40000")
}

func TestIncomeStatement_Ordering(t *testing.T) {
	lines := IncomeStatement(nil, 2024)
	labels := make([]string, len(lines))
	for i, l := range lines {
		labels[i] = l.Label
	}
	assert.Equal(t, []string{
		LabelOperatingIncome,
		LabelNetSales,
		LabelOperatingExpenses,
		LabelGoods,
		LabelExternalCosts,
		LabelPersonnel,
		LabelDepreciation,
		LabelOperatingResult,
		LabelFinancialItems,
		LabelResultAfterFinance,
		LabelAppropriations,
		LabelTax,
		LabelNetResult,
	}, labels)

	assert.True(t, lines[0].IsHeader)
	assert.True(t, lines[7].IsTotal)
	assert.Equal(t, 1, lines[1].Level)
	for _, l := range lines {
		assert.True(t, l.Value.IsZero(), "%s = %s", l.Label, l.Value)
	}
}

func TestIncomeStatement_RunningTotals(t *testing.T) {
	lines := IncomeStatement(yearOfTrading(), 2024)

	requireValue(t, lines, LabelNetSales, "40000")
	requireValue(t, lines, LabelGoods, "8000")
	requireValue(t, lines, LabelExternalCosts, "6000")
	requireValue(t, lines, LabelPersonnel, "15000")
	requireValue(t, lines, LabelDepreciation, "0")
	requireValue(t, lines, LabelOperatingResult, "11000")
	requireValue(t, lines, LabelFinancialItems, "500")
	requireValue(t, lines, LabelResultAfterFinance, "11500")
	requireValue(t, lines, LabelTax, "2500")
	requireValue(t, lines, LabelNetResult, "9000")
}

func TestIncomeStatement_OtherYearExcluded(t *testing.T) {
	lines := IncomeStatement(yearOfTrading(), 2023)
	requireValue(t, lines, LabelNetResult, "0")
}

func TestIncomeStatementFor_BrokenFiscalYear(t *testing.T) {
	vs := yearOfTrading()
	lines := IncomeStatementFor(vs, model.Period{Start: date(2024, 2, 1), End: date(2024, 3, 31)})
	requireValue(t, lines, LabelNetSales, "0")
	requireValue(t, lines, LabelOperatingResult, "-14000")
}

func TestBalanceSheet_Balances(t *testing.T) {
	sheet := BalanceSheetAsOf(yearOfTrading(), date(2024, 12, 31))
	require.NoError(t, sheet.Check())

	// 1930: 50000 + 50000 - 10000 - 6000 - 15000 + 500
	requireValue(t, sheet.Lines, LabelCash, "69500")
	requireValue(t, sheet.Lines, LabelCurrentAssets, "0")
	requireValue(t, sheet.Lines, LabelTotalAssets, "69500")
	requireValue(t, sheet.Lines, LabelEquity, "50000")
	requireValue(t, sheet.Lines, LabelRetainedEarnings, "0")
	requireValue(t, sheet.Lines, LabelYearResult, "9000")
	requireValue(t, sheet.Lines, LabelTotalEquity, "59000")
	// 2610 output VAT less 2640 input VAT, plus 2510 tax
	requireValue(t, sheet.Lines, LabelShortTermLiabilities, "10500")
	requireValue(t, sheet.Lines, LabelTotalEquityAndLiabilities, "69500")

	assert.True(t, sheet.TotalAssets.Equal(dec("69500")))
	assert.True(t, sheet.Difference().IsZero())
}

func TestBalanceSheet_CashAccountIsAsset(t *testing.T) {
	vs := yearOfTrading()[:2]
	sheet := BalanceSheetAsOf(vs, date(2024, 1, 31))
	require.NoError(t, sheet.Check())
	requireValue(t, sheet.Lines, LabelCash, "100000")
}

func TestBalanceSheet_RetainedEarnings(t *testing.T) {
	vs := append(yearOfTrading(),
		ver("A2025-0001", date(2025, 2, 1), debit("1930", "1000"), credit("3001", "1000")),
	)
	sheet := BalanceSheetAsOf(vs, date(2025, 6, 30))
	require.NoError(t, sheet.Check())
	requireValue(t, sheet.Lines, LabelRetainedEarnings, "9000")
	requireValue(t, sheet.Lines, LabelYearResult, "1000")

	// Fiscal year 2024-05-01..2025-04-30: interest, tax and the 2025 sale.
	sheet = BalanceSheetAsOf(vs, date(2025, 2, 28), WithFiscalYearStart(time.May, 1))
	require.NoError(t, sheet.Check())
	requireValue(t, sheet.Lines, LabelYearResult, "-1000")
	requireValue(t, sheet.Lines, LabelRetainedEarnings, "11000")
}

func TestBalanceSheet_MismatchSurfaced(t *testing.T) {
	vs := []model.Verification{
		ver("A2024-0001", date(2024, 1, 1), debit("1930", "100"), credit("3001", "90")),
	}
	sheet := BalanceSheetAsOf(vs, date(2024, 12, 31))

	err := sheet.Check()
	require.Error(t, err)
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.True(t, mismatch.TotalAssets.Equal(dec("100")))
	assert.True(t, mismatch.TotalEquityAndLiabilities.Equal(dec("90")))
	assert.Contains(t, err.Error(), "10.00")

	// Reported as computed, not corrected.
	assert.True(t, sheet.TotalAssets.Equal(dec("100")))
}

func TestStatements_UnplacedAccountsAgree(t *testing.T) {
	for _, acct := range []string{"3X00", "9100", "0100"} {
		t.Run(acct, func(t *testing.T) {
			vs := []model.Verification{
				ver("A2024-0001", date(2024, 3, 1), debit("1930", "1000"), credit(acct, "1000")),
			}
			is := IncomeStatement(vs, 2024)
			requireValue(t, is, LabelOtherItems, "1000")
			requireValue(t, is, LabelNetResult, "1000")

			sheet := BalanceSheetAsOf(vs, date(2024, 12, 31))
			require.NoError(t, sheet.Check())
			requireValue(t, sheet.Lines, LabelYearResult, "1000")
			requireValue(t, sheet.Lines, LabelTotalEquityAndLiabilities, "1000")
		})
	}
}

func TestIncomeStatement_OtherItemsOnlyWhenUsed(t *testing.T) {
	_, ok := Value(IncomeStatement(yearOfTrading(), 2024), LabelOtherItems)
	assert.False(t, ok)
}

func TestFiscalYearStart(t *testing.T) {
	assert.Equal(t, date(2024, 1, 1), FiscalYearStart(date(2024, 6, 1), time.January, 1))
	assert.Equal(t, date(2023, 7, 1), FiscalYearStart(date(2024, 6, 30), time.July, 1))
	assert.Equal(t, date(2024, 7, 1), FiscalYearStart(date(2024, 7, 1), time.July, 1))
}

func randomBalanced(r *rand.Rand, n int) []model.Verification {
	accounts := []string{"1220", "1510", "1930", "2081", "2350", "2440", "2610", "3001", "4010", "5010", "7210", "7830", "8410", "8810", "8910"}
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
			ID:   fmt.Sprintf("A%d-%04d", 2023+r.Intn(2), i+1),
			Date: date(2023+r.Intn(2), 1+r.Intn(12), 1+r.Intn(28)),
			Rows: rows,
		})
	}
	return vs
}

func TestBalanceSheet_IdentityHoldsForBalancedInput(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		vs := randomBalanced(r, 1+r.Intn(40))
		asOf := date(2024, 1+r.Intn(12), 28)
		sheet := BalanceSheetAsOf(vs, asOf)
		assert.NoError(t, sheet.Check(), "round %d", round)

		// The year's result on the balance sheet equals the income statement.
		is := IncomeStatementFor(vs, model.Period{Start: date(2024, 1, 1), End: asOf})
		net, _ := Value(is, LabelNetResult)
		yr, _ := Value(sheet.Lines, LabelYearResult)
		assert.True(t, net.Equal(yr), "round %d: %s vs %s", round, net, yr)
	}
}
