package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bonikcommerce/bonik-backend/api/routes"
	"github.com/bonikcommerce/bonik-backend/internal/notifications"
	"github.com/bonikcommerce/bonik-backend/internal/shipments"
	"github.com/bonikcommerce/bonik-backend/internal/webhooklog"
	courierwebhook "github.com/bonikcommerce/bonik-backend/internal/webhooks/courier"
	sslcommerzwebhook "github.com/bonikcommerce/bonik-backend/internal/webhooks/sslcommerz"
	stripewebhook "github.com/bonikcommerce/bonik-backend/internal/webhooks/stripe"
	"github.com/bonikcommerce/bonik-backend/pkg/config"
	"github.com/bonikcommerce/bonik-backend/pkg/db"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/metrics"
	"github.com/bonikcommerce/bonik-backend/pkg/migrate"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/idempotency"
	"github.com/bonikcommerce/bonik-backend/pkg/redis"
	"github.com/bonikcommerce/bonik-backend/pkg/sslcommerz"
	pkgstripe "github.com/bonikcommerce/bonik-backend/pkg/stripe"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	guard, err := idempotency.NewGuard(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	var stripeClient *pkgstripe.Client
	if cfg.Stripe.Configured() {
		stripeClient, err = pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe webhook secret not set, stripe gate disabled")
	}

	stripeService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Outbox:            outboxService,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	var sslcommerzService *sslcommerzwebhook.Service
	if cfg.SSLCommerz.Configured() {
		sslcommerzClient, err := sslcommerz.NewClient(cfg.SSLCommerz, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create sslcommerz client", err)
			os.Exit(1)
		}
		sslcommerzService, err = sslcommerzwebhook.NewService(sslcommerzwebhook.ServiceParams{
			Validator:         sslcommerzClient,
			Outbox:            outboxService,
			TransactionRunner: dbClient,
			Logger:            logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create sslcommerz webhook service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "sslcommerz credentials not set, ipn gate disabled")
	}

	courierService, err := courierwebhook.NewService(courierwebhook.ServiceParams{
		Shipments:         shipments.NewRepository(dbClient.DB()),
		WebhookLog:        webhooklog.NewRepository(dbClient.DB()),
		Outbox:            outboxService,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create courier webhook service", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(promRegistry)

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

	params := routes.RouterParams{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Guard:          guard,
		StripeClient:   stripeClient,
		StripeService:  stripeService,
		CourierService: courierService,
		Notifications:  notifications.NewRepository(dbClient.DB()),
		Metrics:        webhookMetrics,
		PromGatherer:   promRegistry,
	}
	if sslcommerzService != nil {
		params.SSLCommerzService = sslcommerzService
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(params),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
