package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPClient converts currencies against a fixer-style rate provider. Like the
// ledger client it is built once and shared process-wide.
type HTTPClient struct {
	baseURL   string
	accessKey string
	http      *http.Client
	logger    *slog.Logger
}

// NewHTTPClient builds a rate client for the provider rooted at baseURL.
func NewHTTPClient(baseURL, accessKey string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type latestResponse struct {
	Success bool                       `json:"success"`
	Base    string                     `json:"base"`
	Rates   map[string]decimal.Decimal `json:"rates"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
	} `json:"error"`
}

// Convert quotes the latest rate for from→to and converts amount at
// amount × (1/rate), where rate is units of target currency per one unit of
// base currency.
func (c *HTTPClient) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (Conversion, error) {
	if amount.Cmp(decimal.Zero) <= 0 {
		return Conversion{}, ErrInvalidAmount
	}

	query := url.Values{}
	query.Set("access_key", c.accessKey)
	query.Set("base", from)
	query.Set("symbols", to)
	endpoint := c.baseURL + "/latest?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Conversion{}, fmt.Errorf("build request: %w", err)
	}

	rsp, err := c.http.Do(req)
	if err != nil {
		return Conversion{}, fmt.Errorf("latest %s->%s: %w: %v", from, to, ErrUnavailable, err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode >= 500 {
		return Conversion{}, fmt.Errorf("latest %s->%s: %w: status %d", from, to, ErrUnavailable, rsp.StatusCode)
	}

	var decoded latestResponse
	if err := json.NewDecoder(rsp.Body).Decode(&decoded); err != nil {
		return Conversion{}, fmt.Errorf("latest %s->%s: %w: decode response: %v", from, to, ErrUnavailable, err)
	}

	if !decoded.Success {
		perr := &ProviderError{}
		if decoded.Error != nil {
			perr.Code = decoded.Error.Code
			perr.Type = decoded.Error.Type
		}
		c.logger.Error("rate provider rejected conversion", "base", from, "target", to, "error", perr)
		return Conversion{}, perr
	}

	rate, ok := decoded.Rates[to]
	if !ok || rate.Cmp(decimal.Zero) <= 0 {
		return Conversion{}, &ProviderError{Code: 106, Type: "no_results"}
	}

	ratio := decimal.NewFromInt(1).Div(rate)
	converted := amount.Mul(ratio)

	c.logger.Debug("conversion quoted",
		"base", from, "target", to,
		"ratio", ratio.String(), "amount", amount.String(), "converted", converted.String())

	return Conversion{
		Base:      from,
		Target:    to,
		Ratio:     ratio,
		Amount:    amount,
		Converted: converted,
	}, nil
}
