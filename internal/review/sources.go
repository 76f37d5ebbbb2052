package review

import (
	"context"
	"errors"

	"github.com/kassabok/kassabok/internal/model"
	"github.com/kassabok/kassabok/internal/verification"
)

// ErrNoInvoiceRegister is returned by LedgerSources, which has no invoices.
var ErrNoInvoiceRegister = errors.New("invoice register not available")

// TransactionLister lists imported bank transactions.
type TransactionLister interface {
	List(ctx context.Context, period model.Period) ([]model.BankTransaction, error)
}

// LedgerSources serves a review from a verification ledger and an
// optional bank transaction store. Its invoice section always fails.
type LedgerSources struct {
	Ledger verification.Ledger
	Bank   TransactionLister
}

var _ Sources = LedgerSources{}

func (s LedgerSources) Verifications(ctx context.Context, period model.Period) ([]model.Verification, error) {
	return s.Ledger.List(ctx, period)
}

func (s LedgerSources) Invoices(context.Context, model.Period) ([]model.Invoice, error) {
	return nil, ErrNoInvoiceRegister
}

func (s LedgerSources) Transactions(ctx context.Context, period model.Period) ([]model.BankTransaction, error) {
	if s.Bank == nil {
		return nil, nil
	}
	return s.Bank.List(ctx, period)
}
