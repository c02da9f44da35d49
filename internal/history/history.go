package history

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer record statuses. A record starts pending once escrow funds are
// held and reaches exactly one terminal status.
const (
	StatusPending     = "pending"
	StatusCommitted   = "committed"
	StatusCompensated = "compensated"
	StatusFailed      = "failed"
)

// ErrNotFound occurs when no transfer record exists for the requested id.
var ErrNotFound = errors.New("transfer record not found")

// Record is the persisted intent of one transfer saga. An interrupted saga
// leaves a pending record alongside its escrow wallet, making the partial
// state auditable by a sweep process.
type Record struct {
	ID              string
	FromWalletID    string
	ToWalletID      string
	Amount          decimal.Decimal
	ConvertedAmount *decimal.Decimal
	Fee             *decimal.Decimal
	EscrowID        string
	Status          string
	Reason          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Repository persists transfer records.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
}
