package verification

import (
	"context"
	"time"

	"github.com/kassabok/kassabok/internal/model"
)

// Ledger is a store of booked verifications. Implementations run Check
// inside the same write boundary as persistence.
type Ledger interface {
	Book(ctx context.Context, v model.Verification) (model.Verification, error)
	Reverse(ctx context.Context, targetID string, date time.Time) (model.Verification, error)
	Get(ctx context.Context, verificationID string) (model.Verification, error)
	List(ctx context.Context, period model.Period) ([]model.Verification, error)
}

var _ Ledger = (*Service)(nil)
