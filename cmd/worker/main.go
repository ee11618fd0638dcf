package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/bonikcommerce/bonik-backend/internal/inventory"
	"github.com/bonikcommerce/bonik-backend/internal/ledger"
	"github.com/bonikcommerce/bonik-backend/internal/notifications"
	"github.com/bonikcommerce/bonik-backend/internal/orders"
	"github.com/bonikcommerce/bonik-backend/internal/payments"
	"github.com/bonikcommerce/bonik-backend/internal/webhooklog"
	"github.com/bonikcommerce/bonik-backend/pkg/background"
	"github.com/bonikcommerce/bonik-backend/pkg/config"
	"github.com/bonikcommerce/bonik-backend/pkg/db"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/migrate"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/idempotency"
	"github.com/bonikcommerce/bonik-backend/pkg/pubsub"
	"github.com/bonikcommerce/bonik-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}()

	guard, err := idempotency.NewGuard(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency guard", err)

	gormDB := dbClient.DB()
	notificationsRepo := notifications.NewRepository(gormDB)
	webhookLogRepo := webhooklog.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	alerts := background.New(logg, 0)
	defer func() {
		if err := alerts.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error draining background tasks", err)
		}
	}()

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:              inventory.NewRepository(gormDB),
		TxRunner:          dbClient,
		Alerts:            alerts,
		Notifications:     notificationsRepo,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		Logger:            logg,
	})
	requireResource(ctx, logg, "inventory service", err)

	processor, err := payments.NewProcessor(payments.ProcessorParams{
		Orders:            orders.NewRepository(gormDB),
		Plans:             payments.NewPlanRepository(gormDB),
		Ledger:            ledger.NewRepository(gormDB),
		WebhookLog:        webhookLogRepo,
		Inventory:         inventoryService,
		Outbox:            outboxService,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	requireResource(ctx, logg, "payment processor", err)

	paymentsSubscription := pubsubClient.PaymentsSubscription()
	if paymentsSubscription == nil {
		requireResource(ctx, logg, "payments subscription", errors.New("subscription not configured"))
	}

	paymentsConsumer, err := payments.NewConsumer(payments.ConsumerParams{
		Subscription:      paymentsSubscription,
		Processor:         processor,
		Guard:             guard,
		Attempts:          redisClient,
		WebhookLog:        webhookLogRepo,
		Notifications:     notificationsRepo,
		TransactionRunner: dbClient,
		MaxAttempts:       cfg.Queue.MaxProcessAttempts,
		Logger:            logg,
	})
	requireResource(ctx, logg, "payments consumer", err)

	notificationsSubscription := pubsubClient.NotificationsSubscription()
	if notificationsSubscription == nil {
		requireResource(ctx, logg, "notifications subscription", errors.New("subscription not configured"))
	}

	notificationsConsumer, err := notifications.NewConsumer(notificationsRepo, notificationsSubscription, guard, logg)
	requireResource(ctx, logg, "notifications consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "worker ready")

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return paymentsConsumer.Run(groupCtx)
	})
	group.Go(func() error {
		return notificationsConsumer.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
