package transfer

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FeeCalculator computes the house fee collected on converted transfers. The
// percentage is fixed for the lifetime of the process; a non-positive value is
// rejected at configuration load, not here.
type FeeCalculator struct {
	percent decimal.Decimal
}

// NewFeeCalculator builds a calculator for the given fee percentage.
func NewFeeCalculator(percent decimal.Decimal) FeeCalculator {
	return FeeCalculator{percent: percent}
}

// Fee returns amount × percent / 100 rounded to 2 decimal places.
func (f FeeCalculator) Fee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(f.percent).Div(hundred).Round(2)
}
