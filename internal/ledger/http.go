package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fluxpay/transfer-service/internal/wallet"
)

// HTTPClient talks to the remote ledger service. It is built once at startup
// and shared; the underlying http.Client pools connections and applies a fixed
// per-request timeout.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a ledger client for the service rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// GetWallet fetches a wallet by id.
func (c *HTTPClient) GetWallet(ctx context.Context, id string) (wallet.Wallet, error) {
	var w wallet.Wallet
	if err := c.do(ctx, http.MethodGet, "/wallet?id="+url.QueryEscape(id), nil, &w); err != nil {
		return wallet.Wallet{}, err
	}
	// The store answers a missing id with an empty document rather than 404.
	if w.ID == "" {
		return wallet.Wallet{}, fmt.Errorf("wallet %q: %w", id, ErrWalletNotFound)
	}
	return w, nil
}

// ListWallets fetches every wallet record.
func (c *HTTPClient) ListWallets(ctx context.Context) ([]wallet.Wallet, error) {
	var ws []wallet.Wallet
	if err := c.do(ctx, http.MethodGet, "/wallet/all", nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// GetMasterWallet fetches the house wallet for a currency. When the store
// holds more than one master for the currency, the first in store order wins.
func (c *HTTPClient) GetMasterWallet(ctx context.Context, currency string) (wallet.Wallet, error) {
	var ws []wallet.Wallet
	if err := c.do(ctx, http.MethodGet, "/wallet/master?currency="+url.QueryEscape(currency), nil, &ws); err != nil {
		return wallet.Wallet{}, err
	}
	if len(ws) == 0 {
		return wallet.Wallet{}, fmt.Errorf("master wallet for %s: %w", currency, ErrWalletNotFound)
	}
	return ws[0], nil
}

// CreateWallets inserts the given records and returns them with their
// store-assigned ids.
func (c *HTTPClient) CreateWallets(ctx context.Context, specs []CreateSpec) ([]wallet.Wallet, error) {
	var created []wallet.Wallet
	if err := c.do(ctx, http.MethodPost, "/wallet", specs, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateWallet merge-patches a wallet and returns the updated record.
func (c *HTTPClient) UpdateWallet(ctx context.Context, id string, patch Patch) (wallet.Wallet, error) {
	body := struct {
		ID   string `json:"id"`
		Data Patch  `json:"data"`
	}{ID: id, Data: patch}

	var updated wallet.Wallet
	if err := c.do(ctx, http.MethodPut, "/wallet", body, &updated); err != nil {
		return wallet.Wallet{}, err
	}
	if updated.ID == "" {
		return wallet.Wallet{}, fmt.Errorf("wallet %q: %w", id, ErrWalletNotFound)
	}
	return updated, nil
}

// DeleteWallet removes a wallet by id.
func (c *HTTPClient) DeleteWallet(ctx context.Context, id string) (bool, error) {
	var rsp struct {
		Deleted bool `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/wallet?id="+url.QueryEscape(id), nil, &rsp); err != nil {
		return false, err
	}
	return rsp.Deleted, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrUnavailable, err)
	}
	defer rsp.Body.Close()

	switch {
	case rsp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrWalletNotFound)
	case rsp.StatusCode >= 400:
		return fmt.Errorf("%s %s: %w: status %d", method, path, ErrUnavailable, rsp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(rsp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: decode response: %v", method, path, ErrUnavailable, err)
	}
	return nil
}
