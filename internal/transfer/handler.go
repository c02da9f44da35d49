package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/fluxpay/transfer-service/internal/history"
	"github.com/fluxpay/transfer-service/internal/ledger"
	"github.com/fluxpay/transfer-service/internal/wallet"
)

// Handler exposes the transfer endpoints.
type Handler struct {
	service *Service
	records history.Repository
}

// NewHandler builds a transfer HTTP handler.
func NewHandler(service *Service, records history.Repository) *Handler {
	return &Handler{service: service, records: records}
}

type transferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	TransferID      string           `json:"transfer_id"`
	FromWallet      wallet.Wallet    `json:"from_wallet"`
	ToWallet        wallet.Wallet    `json:"to_wallet"`
	Amount          decimal.Decimal  `json:"amount"`
	ConvertedAmount *decimal.Decimal `json:"converted_amount,omitempty"`
	Fee             *decimal.Decimal `json:"fee,omitempty"`
	Code            int              `json:"code"`
}

type failureResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Create runs a funds transfer and answers with exactly one structured
// outcome, success or failure.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "body must be a JSON object with from, to and amount fields")
	}
	if req.From == "" {
		return fail(c, http.StatusBadRequest, CodeBadRequest, `body must contain a "from" wallet id`)
	}
	if req.To == "" {
		return fail(c, http.StatusBadRequest, CodeBadRequest, `body must contain a "to" wallet id`)
	}
	if req.Amount.Cmp(decimal.Zero) <= 0 {
		return fail(c, http.StatusBadRequest, CodeBadRequest, `body must contain a positive "amount"`)
	}

	res, err := h.service.Transfer(c.UserContext(), Input{
		FromWalletID: req.From,
		ToWalletID:   req.To,
		Amount:       req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			return fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		case errors.Is(err, ledger.ErrWalletNotFound):
			return fail(c, http.StatusBadRequest, CodeWalletNotFound, err.Error())
		case errors.Is(err, ErrInsufficientFunds):
			return fail(c, http.StatusBadRequest, CodeInsufficientFunds, err.Error())
		case errors.Is(err, ErrConversionRejected):
			return fail(c, http.StatusBadRequest, CodeConversionRejected, err.Error())
		default:
			return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(transferResponse{
		TransferID:      res.TransferID,
		FromWallet:      res.FromWallet,
		ToWallet:        res.ToWallet,
		Amount:          res.Amount,
		ConvertedAmount: res.ConvertedAmount,
		Fee:             res.Fee,
		Code:            CodeOK,
	})
}

// Get returns the recorded outcome of a past transfer.
func (h *Handler) Get(c *fiber.Ctx) error {
	rec, err := h.records.Get(c.UserContext(), c.Params("transferId"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transfer not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":               rec.ID,
		"from_wallet_id":   rec.FromWalletID,
		"to_wallet_id":     rec.ToWalletID,
		"amount":           rec.Amount,
		"converted_amount": rec.ConvertedAmount,
		"fee":              rec.Fee,
		"escrow_id":        rec.EscrowID,
		"status":           rec.Status,
		"reason":           rec.Reason,
		"created_at":       rec.CreatedAt,
		"updated_at":       rec.UpdatedAt,
	})
}

func fail(c *fiber.Ctx, status, code int, message string) error {
	return c.Status(status).JSON(failureResponse{Message: message, Code: code})
}
