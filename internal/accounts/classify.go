package accounts

import "github.com/kassabok/kassabok/internal/model"

type typeRange struct {
	from, to string // inclusive two-digit prefixes
	typ      model.AccountType
}

// Two-digit prefix ranges per BAS class. Ranges are compared as strings,
// which is safe because both ends are always two ASCII digits.
var typeRanges = map[byte][]typeRange{
	'1': {
		{"10", "13", model.TypeFixedAssets},
		{"14", "17", model.TypeCurrentAssets},
		{"18", "19", model.TypeCashAndReceivables},
	},
	'2': {
		{"20", "21", model.TypeEquity},
		{"22", "24", model.TypeLongTermLiabilities},
		{"25", "29", model.TypeShortTermLiabilities},
	},
	'3': {
		{"30", "39", model.TypeOperatingRevenue},
	},
	'4': {
		{"40", "49", model.TypeGoods},
	},
	'5': {
		{"50", "59", model.TypeExternalCosts},
	},
	'6': {
		{"60", "69", model.TypeExternalCosts},
	},
	'7': {
		{"70", "76", model.TypePersonnel},
		{"77", "79", model.TypeDepreciation},
	},
	'8': {
		{"80", "87", model.TypeFinancialItems},
		{"88", "88", model.TypeAppropriations},
		{"89", "89", model.TypeTax},
	},
}

var classByDigit = map[byte]model.AccountClass{
	'1': model.ClassAsset,
	'2': model.ClassLiabilityOrEquity,
	'3': model.ClassRevenue,
	'4': model.ClassGoodsExpense,
	'5': model.ClassExternalExpense,
	'6': model.ClassExternalExpense,
	'7': model.ClassPersonnelExpense,
	'8': model.ClassFinancial,
}

// Classify maps a BAS account number to its class and type.
// It never fails: anything it cannot place lands in the "other" bucket.
func Classify(accountNumber string) model.Classification {
	other := model.Classification{Class: model.ClassOther, Type: model.TypeOther}
	if len(accountNumber) == 0 {
		return other
	}

	class, ok := classByDigit[accountNumber[0]]
	if !ok {
		return other
	}

	result := model.Classification{Class: class, Type: model.TypeOther}
	if len(accountNumber) < 2 || !isDigit(accountNumber[1]) {
		return result
	}
	prefix := accountNumber[:2]
	for _, r := range typeRanges[accountNumber[0]] {
		if prefix >= r.from && prefix <= r.to {
			result.Type = r.typ
			break
		}
	}
	return result
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
