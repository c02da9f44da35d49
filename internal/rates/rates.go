package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount rejects conversion requests for non-positive amounts
	// before any remote call is made.
	ErrInvalidAmount = errors.New("amount must be higher than 0")

	// ErrUnavailable indicates the rate provider could not be reached. It is
	// distinct from a provider-reported rejection (ProviderError) so callers
	// can tell a transport fault from a refused quote.
	ErrUnavailable = errors.New("rate service unavailable")
)

// ProviderError is a failure reported by the rate provider itself, carrying
// the provider's numeric error code and type.
type ProviderError struct {
	Code int
	Type string
}

func (e *ProviderError) Error() string {
	reason, ok := providerReasons[e.Code]
	if !ok {
		reason = "Unknown provider error."
	}
	return fmt.Sprintf("%s - %s", e.Type, reason)
}

// providerReasons maps the provider's numeric error codes to human-readable
// reasons, as published in its API documentation.
var providerReasons = map[int]string{
	404: "The requested resource does not exist.",
	101: "No API Key was specified or an invalid API Key was specified.",
	102: "The account this API request is coming from is inactive.",
	103: "The requested API endpoint does not exist.",
	104: "The maximum allowed API amount of monthly API requests has been reached.",
	105: "The current subscription plan does not support this API endpoint.",
	106: "The current request did not return any results.",
	201: "An invalid base currency has been entered.",
	202: "One or more invalid symbols have been specified.",
	301: "No date has been specified.",
	302: "An invalid date has been specified.",
	403: "No or an invalid amount has been specified.",
	501: "No or an invalid timeframe has been specified.",
	502: "No or an invalid \"start_date\" has been specified.",
	503: "No or an invalid \"end_date\" has been specified.",
	504: "An invalid timeframe has been specified.",
	505: "The specified timeframe is too long, exceeding 365 days.",
}

// Conversion is the outcome of a successful currency conversion.
type Conversion struct {
	Base      string
	Target    string
	Ratio     decimal.Decimal
	Amount    decimal.Decimal
	Converted decimal.Decimal
}

// Converter quotes the current spot rate and converts an amount between two
// currency codes.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (Conversion, error)
}

// Static is a Converter returning a fixed ratio, useful for tests and local
// development without provider credentials.
type Static struct {
	Ratio decimal.Decimal
}

// Convert applies the fixed ratio to the amount.
func (s Static) Convert(_ context.Context, amount decimal.Decimal, from, to string) (Conversion, error) {
	if amount.Cmp(decimal.Zero) <= 0 {
		return Conversion{}, ErrInvalidAmount
	}
	return Conversion{
		Base:      from,
		Target:    to,
		Ratio:     s.Ratio,
		Amount:    amount,
		Converted: amount.Mul(s.Ratio),
	}, nil
}
