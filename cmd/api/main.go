package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitrinehub/storefront-backend/api/routes"
	"github.com/vitrinehub/storefront-backend/internal/orders"
	"github.com/vitrinehub/storefront-backend/internal/pricing"
	"github.com/vitrinehub/storefront-backend/internal/settlement"
	"github.com/vitrinehub/storefront-backend/internal/stock"
	"github.com/vitrinehub/storefront-backend/internal/stores"
	"github.com/vitrinehub/storefront-backend/internal/webhooks"
	"github.com/vitrinehub/storefront-backend/pkg/config"
	"github.com/vitrinehub/storefront-backend/pkg/db"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
	"github.com/vitrinehub/storefront-backend/pkg/metrics"
	"github.com/vitrinehub/storefront-backend/pkg/migrate"
	"github.com/vitrinehub/storefront-backend/pkg/outbox"
	"github.com/vitrinehub/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)

	productRepo := stock.NewProductRepository(dbClient.DB())
	movementRepo := stock.NewMovementRepository(dbClient.DB())
	ledger, err := stock.NewLedger(productRepo, movementRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock ledger", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	pricingService, err := pricing.NewService(pricing.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repository:     ordersRepo,
		DB:             dbClient,
		StoreRepo:      stores.NewRepository(dbClient.DB()),
		ProductRepo:    productRepo,
		Ledger:         ledger,
		PriceModels:    pricingService,
		Events:         outboxService,
		Logger:         logg,
		Metrics:        orderMetrics,
		ReservationTTL: cfg.Reservation.TTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Orders:     ordersRepo,
		DB:         dbClient,
		Ledger:     ledger,
		Events:     outboxService,
		Logger:     logg,
		Metrics:    orderMetrics,
		SweepBatch: cfg.Reservation.SweepBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	paymentProcessor, err := webhooks.NewPaymentProcessor(webhooks.PaymentProcessorParams{
		Orders:     ordersRepo,
		Settlement: settlementService,
		Dedupe:     redisClient,
		Logger:     logg,
		DedupeTTL:  cfg.Reservation.WebhookDedupeTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment processor", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:           cfg,
			Logger:           logg,
			DB:               dbClient,
			Redis:            redisClient,
			Orders:           ordersService,
			Settlement:       settlementService,
			Pricing:          pricingService,
			PaymentProcessor: paymentProcessor,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
