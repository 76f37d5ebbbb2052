package model

import "github.com/shopspring/decimal"

// AccountClass is the BAS class derived from the first digit of an account number.
type AccountClass string

const (
	ClassAsset             AccountClass = "asset"
	ClassLiabilityOrEquity AccountClass = "liability_or_equity"
	ClassRevenue           AccountClass = "revenue"
	ClassGoodsExpense      AccountClass = "goods_expense"    // 4xxx
	ClassExternalExpense   AccountClass = "external_expense" // 5xxx-6xxx
	ClassPersonnelExpense  AccountClass = "personnel_expense"
	ClassFinancial         AccountClass = "financial" // 8xxx
	ClassOther             AccountClass = "other"
)

// IsExpense reports whether the class is one of the 4-8 cost classes.
func (c AccountClass) IsExpense() bool {
	switch c {
	case ClassGoodsExpense, ClassExternalExpense, ClassPersonnelExpense, ClassFinancial:
		return true
	}
	return false
}

// AccountType is the finer subtype derived from the first two digits.
type AccountType string

const (
	TypeFixedAssets          AccountType = "fixed_assets"
	TypeCurrentAssets        AccountType = "current_assets"
	TypeCashAndReceivables   AccountType = "cash_and_receivables"
	TypeEquity               AccountType = "equity"
	TypeLongTermLiabilities  AccountType = "long_term_liabilities"
	TypeShortTermLiabilities AccountType = "short_term_liabilities"
	TypeOperatingRevenue     AccountType = "operating_revenue"
	TypeGoods                AccountType = "goods"
	TypeExternalCosts        AccountType = "external_costs"
	TypePersonnel            AccountType = "personnel"
	TypeDepreciation         AccountType = "depreciation"
	TypeFinancialItems       AccountType = "financial_items"
	TypeAppropriations       AccountType = "appropriations"
	TypeTax                  AccountType = "tax"
	TypeOther                AccountType = "other"
)

// Classification is the derived class/type pair of an account number.
type Classification struct {
	Class AccountClass
	Type  AccountType
}

// Account is a row in the BAS chart of accounts (kontoplan.csv).
// Class and type are derived from Number and never stored.
type Account struct {
	Number    string
	Name      string
	VATRate   decimal.NullDecimal
	CompanyID string
}
