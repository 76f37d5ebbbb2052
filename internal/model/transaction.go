package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the booking state of an imported bank transaction.
type TransactionStatus string

const (
	TransactionUnbooked TransactionStatus = "unbooked"
	TransactionBooked   TransactionStatus = "booked"
	TransactionIgnored  TransactionStatus = "ignored"
)

// BankTransaction represents a parsed bank CSV row.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = outgoing, positive = incoming
	Reference   string
	Status      TransactionStatus
}
