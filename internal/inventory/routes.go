package inventory

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches stock ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/in", h.stockIn)
	r.Post("/out", h.stockOut)
	r.Get("/stock", h.getStock)
	r.Get("/movements", h.listMovements)
}
