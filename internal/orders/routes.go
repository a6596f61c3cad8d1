package orders

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.checkout)
	r.Get("/", h.list)
	r.Get("/{orderID}", h.get)
	r.Put("/{orderID}", h.update)
}
