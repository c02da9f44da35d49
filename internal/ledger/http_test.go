package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxpay/transfer-service/internal/wallet"
)

// fakeLedgerService emulates the remote wallet store's HTTP surface.
type fakeLedgerService struct {
	wallets map[string]wallet.Wallet
	nextID  int
	// lastPatch captures the raw merge-patch body of the last PUT.
	lastPatch map[string]any
}

func (f *fakeLedgerService) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/wallet/all", func(w http.ResponseWriter, r *http.Request) {
		all := make([]wallet.Wallet, 0, len(f.wallets))
		for _, stored := range f.wallets {
			all = append(all, stored)
		}
		json.NewEncoder(w).Encode(all)
	})

	mux.HandleFunc("/wallet/master", func(w http.ResponseWriter, r *http.Request) {
		currency := r.URL.Query().Get("currency")
		masters := make([]wallet.Wallet, 0)
		for _, stored := range f.wallets {
			if stored.Master && (currency == "" || stored.Currency == currency) {
				masters = append(masters, stored)
			}
		}
		json.NewEncoder(w).Encode(masters)
	})

	mux.HandleFunc("/wallet", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			stored, ok := f.wallets[r.URL.Query().Get("id")]
			if !ok {
				// The store answers unknown ids with a null document.
				w.Write([]byte("null"))
				return
			}
			json.NewEncoder(w).Encode(stored)

		case http.MethodPost:
			var specs []CreateSpec
			json.NewDecoder(r.Body).Decode(&specs)
			created := make([]wallet.Wallet, 0, len(specs))
			for _, spec := range specs {
				f.nextID++
				stored := wallet.Wallet{
					ID:        fmt.Sprintf("gen-%d", f.nextID),
					Amount:    spec.Amount,
					Currency:  spec.Currency,
					CompanyID: spec.CompanyID,
				}
				f.wallets[stored.ID] = stored
				created = append(created, stored)
			}
			json.NewEncoder(w).Encode(created)

		case http.MethodPut:
			var body struct {
				ID   string         `json:"id"`
				Data map[string]any `json:"data"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.lastPatch = body.Data
			stored, ok := f.wallets[body.ID]
			if !ok {
				w.Write([]byte("null"))
				return
			}
			if raw, ok := body.Data["amount"]; ok {
				amount, _ := decimal.NewFromString(jsonNumber(raw))
				stored.Amount = amount
			}
			if raw, ok := body.Data["companyId"]; ok {
				stored.CompanyID, _ = raw.(string)
			}
			f.wallets[body.ID] = stored
			json.NewEncoder(w).Encode(stored)

		case http.MethodDelete:
			id := r.URL.Query().Get("id")
			_, ok := f.wallets[id]
			delete(f.wallets, id)
			json.NewEncoder(w).Encode(map[string]bool{"deleted": ok})
		}
	})

	return mux
}

// jsonNumber renders a decoded JSON value as a plain numeric literal.
// Decimal amounts travel as quoted strings on the wire.
func jsonNumber(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}

func newFakeService(t *testing.T) (*fakeLedgerService, *HTTPClient) {
	t.Helper()
	fake := &fakeLedgerService{wallets: make(map[string]wallet.Wallet)}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return fake, NewHTTPClient(srv.URL, 2*time.Second)
}

func TestHTTPClientGetWallet(t *testing.T) {
	fake, client := newFakeService(t)
	fake.wallets["w1"] = wallet.Wallet{ID: "w1", Amount: decimal.NewFromInt(42), Currency: "USD", CompanyID: "acme"}

	got, err := client.GetWallet(context.Background(), "w1")
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if got.ID != "w1" || !got.Amount.Equal(decimal.NewFromInt(42)) || got.Currency != "USD" {
		t.Fatalf("unexpected wallet: %+v", got)
	}
}

func TestHTTPClientGetWalletMissing(t *testing.T) {
	_, client := newFakeService(t)

	_, err := client.GetWallet(context.Background(), "missing")
	if !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHTTPClientGetMasterWalletFirstWins(t *testing.T) {
	fake, client := newFakeService(t)
	fake.wallets["m1"] = wallet.Wallet{ID: "m1", Currency: "USD", CompanyID: "house", Master: true}

	got, err := client.GetMasterWallet(context.Background(), "USD")
	if err != nil {
		t.Fatalf("get master: %v", err)
	}
	if !got.Master || got.Currency != "USD" {
		t.Fatalf("unexpected master wallet: %+v", got)
	}

	if _, err := client.GetMasterWallet(context.Background(), "GBP"); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected not found for GBP master, got %v", err)
	}
}

func TestHTTPClientCreateWallets(t *testing.T) {
	_, client := newFakeService(t)

	created, err := client.CreateWallets(context.Background(), []CreateSpec{{
		Amount:    decimal.NewFromInt(50),
		Currency:  "USD",
		CompanyID: wallet.EscrowCompanyID,
	}})
	if err != nil {
		t.Fatalf("create wallets: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created wallet, got %d", len(created))
	}
	if created[0].ID == "" || !created[0].IsEscrow() {
		t.Fatalf("unexpected created wallet: %+v", created[0])
	}
}

func TestHTTPClientUpdateWalletIsMergePatch(t *testing.T) {
	fake, client := newFakeService(t)
	fake.wallets["w1"] = wallet.Wallet{ID: "w1", Amount: decimal.NewFromInt(100), Currency: "USD", CompanyID: "acme"}

	updated, err := client.UpdateWallet(context.Background(), "w1", AmountPatch(decimal.NewFromInt(75)))
	if err != nil {
		t.Fatalf("update wallet: %v", err)
	}
	if !updated.Amount.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected amount 75, got %s", updated.Amount.String())
	}
	if updated.Currency != "USD" || updated.CompanyID != "acme" {
		t.Fatalf("merge-patch must not clear unrelated fields: %+v", updated)
	}

	// Only the amount field may travel in the patch body.
	if len(fake.lastPatch) != 1 {
		t.Fatalf("expected a single-field patch, got %v", fake.lastPatch)
	}
	if _, ok := fake.lastPatch["amount"]; !ok {
		t.Fatalf("expected amount in patch, got %v", fake.lastPatch)
	}
}

func TestHTTPClientDeleteWallet(t *testing.T) {
	fake, client := newFakeService(t)
	fake.wallets["w1"] = wallet.Wallet{ID: "w1", Currency: "USD", CompanyID: "acme"}

	deleted, err := client.DeleteWallet(context.Background(), "w1")
	if err != nil {
		t.Fatalf("delete wallet: %v", err)
	}
	if !deleted {
		t.Fatalf("expected deleted=true")
	}

	// Deleting again is a no-op failure, not an error.
	deleted, err = client.DeleteWallet(context.Background(), "w1")
	if err != nil {
		t.Fatalf("second delete must not error: %v", err)
	}
	if deleted {
		t.Fatalf("expected deleted=false on second delete")
	}
}

func TestHTTPClientServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := NewHTTPClient(srv.URL, 2*time.Second)

	if _, err := client.GetWallet(context.Background(), "w1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestHTTPClientTransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewHTTPClient(srv.URL, time.Second)

	if _, err := client.GetWallet(context.Background(), "w1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
