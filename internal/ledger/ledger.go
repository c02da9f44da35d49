package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fluxpay/transfer-service/internal/wallet"
)

var (
	// ErrWalletNotFound occurs when the ledger service holds no wallet for the
	// requested id or master filter.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrUnavailable indicates the ledger service could not be reached or
	// answered with a server error. Callers past the escrow point must treat it
	// as a compensation trigger.
	ErrUnavailable = errors.New("ledger service unavailable")
)

// CreateSpec describes a wallet record to create. The ledger service assigns
// the id.
type CreateSpec struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	CompanyID string          `json:"companyId"`
}

// Patch is a merge-patch for a wallet update: only non-nil fields are written,
// the remote record keeps every other field untouched.
type Patch struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Currency  *string          `json:"currency,omitempty"`
	CompanyID *string          `json:"companyId,omitempty"`
}

// AmountPatch builds a Patch that overwrites only the balance.
func AmountPatch(amount decimal.Decimal) Patch {
	return Patch{Amount: &amount}
}

// Client is the contract implemented by ledger backends. Every call is a
// remote operation with no local caching; a fresh copy of the record is
// returned by each write.
type Client interface {
	GetWallet(ctx context.Context, id string) (wallet.Wallet, error)
	ListWallets(ctx context.Context) ([]wallet.Wallet, error)
	// GetMasterWallet returns the first master wallet for the currency in
	// store-defined order. The store guarantees at most one active master per
	// currency by convention only.
	GetMasterWallet(ctx context.Context, currency string) (wallet.Wallet, error)
	CreateWallets(ctx context.Context, specs []CreateSpec) ([]wallet.Wallet, error)
	UpdateWallet(ctx context.Context, id string, patch Patch) (wallet.Wallet, error)
	// DeleteWallet reports whether a record was removed. Deleting an absent
	// wallet returns false without error.
	DeleteWallet(ctx context.Context, id string) (bool, error)
}
