package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of a customer or supplier invoice.
type InvoiceStatus string

const (
	InvoiceDraft    InvoiceStatus = "draft"
	InvoiceSent     InvoiceStatus = "sent"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceOverdue  InvoiceStatus = "overdue"
	InvoiceArchived InvoiceStatus = "archived"
)

// Invoice is a customer or supplier invoice.
type Invoice struct {
	ID        string
	CompanyID string
	Number    string
	Supplier  bool
	DueDate   time.Time
	Total     decimal.Decimal
	Status    InvoiceStatus
}

// Shareholder is an entry in the share register.
type Shareholder struct {
	ID        string
	CompanyID string
	Name      string
	Shares    int
	Status    string
}

// BoardMember is a member of the company board.
type BoardMember struct {
	ID        string
	CompanyID string
	Name      string
	Role      string
	Status    string
}
