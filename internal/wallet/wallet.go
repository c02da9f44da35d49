package wallet

import "github.com/shopspring/decimal"

// EscrowCompanyID is the sentinel owner marking temporary escrow wallets
// created while a transfer is in flight.
const EscrowCompanyID = "tmp"

// Currencies is the closed set of currency codes the ledger store accepts.
var Currencies = []string{"USD", "EUR", "GBP"}

// Wallet mirrors a ledger account record as stored by the remote ledger
// service. Amount is the authoritative balance at the time it was fetched.
type Wallet struct {
	ID        string          `json:"_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	CompanyID string          `json:"companyId"`
	Master    bool            `json:"isMaster"`
}

// IsEscrow reports whether the wallet is a temporary escrow wallet.
func (w Wallet) IsEscrow() bool {
	return w.CompanyID == EscrowCompanyID
}

// ValidCurrency reports whether code belongs to the supported currency set.
func ValidCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}
