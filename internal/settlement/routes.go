package settlement

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches settlement routes under /orders.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{orderID}/settle", h.settle)
	r.Post("/{orderID}/payments", h.recordPayment)
	r.Get("/{orderID}/payments", h.listPayments)
	r.Get("/{orderID}/totals", h.getTotals)
}
