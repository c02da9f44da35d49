package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fluxpay/transfer-service/internal/transfer"
)

// RegisterTransferRoutes wires the transfer endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler) {
	r.Post("/transfers", h.Create)
	r.Get("/transfers/:transferId", h.Get)
}
