package report

import (
	"github.com/kassabok/kassabok/internal/ledger"
	"github.com/kassabok/kassabok/internal/model"
)

// Income statement labels.
const (
	LabelOperatingIncome    = "Rörelsens intäkter"
	LabelNetSales           = "Nettoomsättning"
	LabelOperatingExpenses  = "Rörelsens kostnader"
	LabelGoods              = "Råvaror och förnödenheter"
	LabelExternalCosts      = "Övriga externa kostnader"
	LabelPersonnel          = "Personalkostnader"
	LabelDepreciation       = "Av- och nedskrivningar"
	LabelOperatingResult    = "Rörelseresultat"
	LabelFinancialItems     = "Finansiella poster"
	LabelResultAfterFinance = "Resultat efter finansiella poster"
	LabelAppropriations     = "Bokslutsdispositioner"
	LabelOtherItems         = "Övriga poster"
	LabelTax                = "Skatt på årets resultat"
	LabelNetResult          = "Årets resultat"
)

var incomeSpecs = []lineSpec{
	{label: LabelOperatingIncome, kind: lineHeader},
	{label: LabelNetSales, level: 1, types: []model.AccountType{model.TypeOperatingRevenue}, negate: true},
	{label: LabelOperatingExpenses, kind: lineHeader},
	{label: LabelGoods, level: 1, types: []model.AccountType{model.TypeGoods}, negate: true, cost: true},
	{label: LabelExternalCosts, level: 1, types: []model.AccountType{model.TypeExternalCosts}, negate: true, cost: true},
	{label: LabelPersonnel, level: 1, types: []model.AccountType{model.TypePersonnel}, negate: true, cost: true},
	{label: LabelDepreciation, level: 1, types: []model.AccountType{model.TypeDepreciation}, negate: true, cost: true},
	{label: LabelOperatingResult, kind: lineTotal},
	{label: LabelFinancialItems, level: 1, types: []model.AccountType{model.TypeFinancialItems}, negate: true},
	{label: LabelResultAfterFinance, kind: lineTotal},
	{label: LabelAppropriations, level: 1, types: []model.AccountType{model.TypeAppropriations}, negate: true},
	{label: LabelOtherItems, level: 1, types: []model.AccountType{model.TypeOther}, negate: true, omitZero: true},
	{label: LabelTax, level: 1, types: []model.AccountType{model.TypeTax}, negate: true, cost: true},
	{label: LabelNetResult, kind: lineTotal},
}

// IncomeStatement builds the K2 income statement for a calendar year.
func IncomeStatement(verifications []model.Verification, year int) []model.ReportLine {
	return IncomeStatementFor(verifications, model.Year(year))
}

// IncomeStatementFor builds the income statement for an arbitrary period,
// e.g. a broken fiscal year.
func IncomeStatementFor(verifications []model.Verification, period model.Period) []model.ReportLine {
	return IncomeStatementFromBalances(ledger.AggregateVerifications(verifications, period))
}

// IncomeStatementFromBalances folds raw balances into income statement lines.
// Revenue is shown positive, costs as positive magnitudes, and every
// total is the running sum of the signed lines above it. Balances on
// accounts the chart cannot place appear as Övriga poster, only when
// non-zero.
func IncomeStatementFromBalances(b ledger.Balances) []model.ReportLine {
	return fold(incomeSpecs, b)
}
