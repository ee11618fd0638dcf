package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bonikcommerce/bonik-backend/api/controllers"
	webhookcontrollers "github.com/bonikcommerce/bonik-backend/api/controllers/webhooks"
	"github.com/bonikcommerce/bonik-backend/api/middleware"
	"github.com/bonikcommerce/bonik-backend/internal/notifications"
	"github.com/bonikcommerce/bonik-backend/pkg/config"
	"github.com/bonikcommerce/bonik-backend/pkg/db"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/metrics"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/idempotency"
	"github.com/bonikcommerce/bonik-backend/pkg/redis"
	pkgstripe "github.com/bonikcommerce/bonik-backend/pkg/stripe"
)

// RouterParams carries everything the ingestion surface needs. The webhook
// gates share one Redis-backed guard; each endpoint scopes its keys by
// gateway.
type RouterParams struct {
	Config            *config.Config
	Logger            *logger.Logger
	DB                db.Pinger
	Redis             redis.Pinger
	Guard             *idempotency.Guard
	StripeClient      *pkgstripe.Client
	StripeService     webhookcontrollers.StripeWebhookService
	SSLCommerzService webhookcontrollers.SSLCommerzWebhookService
	CourierService    webhookcontrollers.CourierWebhookService
	Notifications     notifications.Repository
	Metrics           *metrics.WebhookMetrics
	PromGatherer      prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	if p.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.PromGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeService, p.StripeClient, p.Guard, p.Metrics, p.Logger))
		r.Post("/sslcommerz", webhookcontrollers.SSLCommerzWebhook(p.SSLCommerzService, p.Guard, p.Metrics, p.Logger))
		r.Post("/couriers/{courier}", webhookcontrollers.CourierWebhook(p.CourierService, p.Guard, p.Metrics, p.Logger))
	})

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Get("/", controllers.ListNotifications(p.Notifications, p.Logger))
		r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, p.Logger))
	})

	return r
}
