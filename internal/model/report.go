package model

import "github.com/shopspring/decimal"

// ReportLine is one presentational row of a financial statement.
// IsHeader and Level are hints for indentation and bolding.
type ReportLine struct {
	Label    string          `json:"label"`
	Value    decimal.Decimal `json:"value"`
	IsTotal  bool            `json:"isTotal"`
	IsHeader bool            `json:"isHeader"`
	Level    int             `json:"level"`
}
