package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerificationRow is one debit or credit line of a verification.
type VerificationRow struct {
	Account     string          `yaml:"account" json:"account"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Debit       decimal.Decimal `yaml:"debit,omitempty" json:"debit"`   // zero if credit side
	Credit      decimal.Decimal `yaml:"credit,omitempty" json:"credit"` // zero if debit side
}

// Verification is a journal entry (bokföringsverifikation).
// Once booked it is never mutated, only reversed by a new verification.
type Verification struct {
	ID          string            `yaml:"id,omitempty" json:"id,omitempty"` // empty until booked
	Date        time.Time         `yaml:"date" json:"date"`
	Description string            `yaml:"description" json:"description"`
	Rows        []VerificationRow `yaml:"rows" json:"rows"`
	Reverses    string            `yaml:"reverses,omitempty" json:"reverses,omitempty"`
	CompanyID   string            `yaml:"company_id,omitempty" json:"companyId,omitempty"`
}

// LedgerRow is a verification row flattened with its booking date.
type LedgerRow struct {
	VerificationID string
	Date           time.Time
	AccountNumber  string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
}

// AccountBalance is the computed raw balance (debit - credit) of one account.
type AccountBalance struct {
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	Period        Period          `json:"period"`
	Year          int             `json:"year"`
}
