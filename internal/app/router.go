package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gvstock/gvstock/internal/cashregister"
	"github.com/gvstock/gvstock/internal/catalog"
	"github.com/gvstock/gvstock/internal/inventory"
	"github.com/gvstock/gvstock/internal/observability"
	"github.com/gvstock/gvstock/internal/orders"
	"github.com/gvstock/gvstock/internal/purchasing"
	"github.com/gvstock/gvstock/internal/settlement"
	"github.com/gvstock/gvstock/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	CatalogHandler    *catalog.Handler
	OrdersHandler     *orders.Handler
	SettlementHandler *settlement.Handler
	InventoryHandler  *inventory.Handler
	RegisterHandler   *cashregister.Handler
	PurchasingHandler *purchasing.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Get("/metrics", params.Metrics.Handler().ServeHTTP)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.CatalogHandler != nil {
			api.Route("/products", params.CatalogHandler.MountRoutes)
		}
		if params.OrdersHandler != nil || params.SettlementHandler != nil {
			api.Route("/orders", func(rt chi.Router) {
				if params.OrdersHandler != nil {
					params.OrdersHandler.MountRoutes(rt)
				}
				if params.SettlementHandler != nil {
					params.SettlementHandler.MountRoutes(rt)
				}
			})
		}
		if params.InventoryHandler != nil {
			api.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.RegisterHandler != nil {
			api.Route("/registers", params.RegisterHandler.MountRoutes)
		}
		if params.PurchasingHandler != nil {
			api.Route("/purchasing", params.PurchasingHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
