package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gvstock/gvstock/internal/app"
	"github.com/gvstock/gvstock/internal/cashregister"
	"github.com/gvstock/gvstock/internal/catalog"
	"github.com/gvstock/gvstock/internal/fulfillment"
	"github.com/gvstock/gvstock/internal/inventory"
	"github.com/gvstock/gvstock/internal/observability"
	"github.com/gvstock/gvstock/internal/orders"
	"github.com/gvstock/gvstock/internal/platform/cache"
	"github.com/gvstock/gvstock/internal/platform/db"
	"github.com/gvstock/gvstock/internal/purchasing"
	"github.com/gvstock/gvstock/internal/settlement"
	"github.com/gvstock/gvstock/internal/shared"
	"github.com/gvstock/gvstock/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, product cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	productCache := catalog.NewProductCache(redisClient, cfg.ProductCacheTTL)
	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, productCache)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore, productCache, metrics)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	registerRepo := cashregister.NewRepository(dbpool)
	registerService := cashregister.NewService(registerRepo, auditLogger, logger)
	registerHandler := cashregister.NewHandler(logger, registerService)
	registerAdapter := cashregister.NewSettlementAdapter(registerService, logger)

	settlementRepo := settlement.NewRepository(dbpool)
	settlementService := settlement.NewService(settlementRepo, registerAdapter, auditLogger, metrics, logger)

	fulfillmentRepo := fulfillment.NewRepository(dbpool)
	fulfillmentService := fulfillment.NewService(fulfillmentRepo, auditLogger)

	coordinator := settlement.NewCoordinator(settlementService, fulfillmentService, logger)
	settlementHandler := settlement.NewHandler(logger, settlementService, coordinator)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, inventoryService, auditLogger, logger)
	ordersHandler := orders.NewHandler(logger, ordersService)

	purchasingRepo := purchasing.NewRepository(dbpool)
	purchasingService := purchasing.NewService(purchasingRepo, inventoryService, auditLogger, logger)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CatalogHandler:    catalogHandler,
		OrdersHandler:     ordersHandler,
		SettlementHandler: settlementHandler,
		InventoryHandler:  inventoryHandler,
		RegisterHandler:   registerHandler,
		PurchasingHandler: purchasingHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
