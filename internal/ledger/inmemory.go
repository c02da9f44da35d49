package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/fluxpay/transfer-service/internal/wallet"
)

type inMemoryClient struct {
	mu      sync.RWMutex
	wallets map[string]wallet.Wallet
	order   []string
}

// NewInMemory creates a concurrency-safe in-memory ledger backend useful for
// unit tests and local development.
func NewInMemory() Client {
	return &inMemoryClient{wallets: make(map[string]wallet.Wallet)}
}

func (c *inMemoryClient) GetWallet(_ context.Context, id string) (wallet.Wallet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.wallets[id]
	if !ok {
		return wallet.Wallet{}, fmt.Errorf("wallet %q: %w", id, ErrWalletNotFound)
	}
	return w, nil
}

func (c *inMemoryClient) ListWallets(_ context.Context) ([]wallet.Wallet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ws := make([]wallet.Wallet, 0, len(c.order))
	for _, id := range c.order {
		ws = append(ws, c.wallets[id])
	}
	return ws, nil
}

func (c *inMemoryClient) GetMasterWallet(_ context.Context, currency string) (wallet.Wallet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range c.order {
		w := c.wallets[id]
		if w.Master && (currency == "" || w.Currency == currency) {
			return w, nil
		}
	}
	return wallet.Wallet{}, fmt.Errorf("master wallet for %s: %w", currency, ErrWalletNotFound)
}

func (c *inMemoryClient) CreateWallets(_ context.Context, specs []CreateSpec) ([]wallet.Wallet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	created := make([]wallet.Wallet, 0, len(specs))
	for _, spec := range specs {
		// The remote store enforces this as a schema enum.
		if !wallet.ValidCurrency(spec.Currency) {
			return nil, fmt.Errorf("create wallet: unsupported currency %q", spec.Currency)
		}
		w := wallet.Wallet{
			ID:        uuid.NewString(),
			Amount:    spec.Amount,
			Currency:  spec.Currency,
			CompanyID: spec.CompanyID,
		}
		c.wallets[w.ID] = w
		c.order = append(c.order, w.ID)
		created = append(created, w)
	}
	return created, nil
}

func (c *inMemoryClient) UpdateWallet(_ context.Context, id string, patch Patch) (wallet.Wallet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.wallets[id]
	if !ok {
		return wallet.Wallet{}, fmt.Errorf("wallet %q: %w", id, ErrWalletNotFound)
	}
	if patch.Amount != nil {
		w.Amount = *patch.Amount
	}
	if patch.Currency != nil {
		w.Currency = *patch.Currency
	}
	if patch.CompanyID != nil {
		w.CompanyID = *patch.CompanyID
	}
	c.wallets[id] = w
	return w, nil
}

func (c *inMemoryClient) DeleteWallet(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.wallets[id]; !ok {
		return false, nil
	}
	delete(c.wallets, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true, nil
}
