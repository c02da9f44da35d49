package transfer

import "errors"

var (
	// ErrInvalidInput rejects malformed transfer requests before any remote
	// call is made.
	ErrInvalidInput = errors.New("invalid transfer input")

	// ErrInsufficientFunds occurs when the source wallet balance does not
	// cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds on source wallet")

	// ErrConversionRejected occurs when the rate provider refuses the quote.
	// Funds have already been escrowed at that point, so it is always preceded
	// by compensation.
	ErrConversionRejected = errors.New("conversion rejected")

	// ErrEscrowOwnership occurs when the escrow wallet is about to be debited
	// but is no longer owned by the escrow company.
	ErrEscrowOwnership = errors.New("escrow wallet is not owned by the escrow company")
)

// Outcome codes returned to the caller alongside the failure message. Zero is
// success, small positive codes are validation or business rejections, and
// CodeInternal marks transport or internal faults.
const (
	CodeOK                 = 0
	CodeBadRequest         = 1
	CodeWalletNotFound     = 2
	CodeInsufficientFunds  = 3
	CodeConversionRejected = 4
	CodeInternal           = 50
)
