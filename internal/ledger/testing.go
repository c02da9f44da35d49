package ledger

import "github.com/fluxpay/transfer-service/internal/wallet"

// SeedWallet is a test helper that inserts a wallet with a known id when using
// the in-memory backend.
func SeedWallet(c Client, w wallet.Wallet) {
	if mem, ok := c.(*inMemoryClient); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if _, exists := mem.wallets[w.ID]; !exists {
			mem.order = append(mem.order, w.ID)
		}
		mem.wallets[w.ID] = w
	}
}
