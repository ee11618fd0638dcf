package webhooks

import (
	"context"
	"net/http"
	"strings"

	"github.com/bonikcommerce/bonik-backend/api/responses"
	sslcommerzwebhook "github.com/bonikcommerce/bonik-backend/internal/webhooks/sslcommerz"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/metrics"
)

type SSLCommerzWebhookService interface {
	HandleIPN(ctx context.Context, tranID, valID string) (sslcommerzwebhook.Outcome, error)
}

// SSLCommerzWebhook accepts the form-encoded IPN callback. SSLCommerz does
// not act on response bodies, so every terminal outcome answers 200 with a
// short text marker; only an infrastructure fault returns a 5xx so the
// gateway redelivers.
func SSLCommerzWebhook(svc SSLCommerzWebhookService, guard idempotencyGuard, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	gateway := enums.GatewaySSLCommerz.String()

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		m.IncReceived(gateway)

		if svc == nil || guard == nil {
			// SSLCommerz cannot fix a gate that is not configured here.
			m.IncRejected(gateway, "unconfigured")
			if logg != nil {
				logg.Warn(ctx, "sslcommerz ipn dropped, gate not configured")
			}
			responses.WriteText(w, http.StatusOK, "IGNORED")
			return
		}

		if err := r.ParseForm(); err != nil {
			m.IncRejected(gateway, "malformed_body")
			responses.WriteText(w, http.StatusOK, "IGNORED")
			return
		}

		tranID := strings.TrimSpace(r.FormValue("tran_id"))
		valID := strings.TrimSpace(r.FormValue("val_id"))
		if tranID == "" || valID == "" {
			m.IncRejected(gateway, "missing_fields")
			responses.WriteText(w, http.StatusOK, "IGNORED")
			return
		}

		deliveryKey := tranID + ":" + valID
		if logg != nil {
			ctx = logg.WithEventID(logg.WithGateway(ctx, gateway), deliveryKey)
		}

		seen, err := guard.Seen(ctx, gateway, deliveryKey)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "sslcommerz idempotency check failed", err)
			}
			responses.WriteText(w, http.StatusServiceUnavailable, "RETRY")
			return
		}
		if seen {
			m.IncDuplicate(gateway)
			responses.WriteText(w, http.StatusOK, "DUPLICATE")
			return
		}

		outcome, err := svc.HandleIPN(ctx, tranID, valID)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "sslcommerz ipn failed", err)
			}
			responses.WriteText(w, http.StatusServiceUnavailable, "RETRY")
			return
		}

		if outcome == sslcommerzwebhook.OutcomeEnqueued {
			if err := guard.Mark(ctx, gateway, deliveryKey); err != nil && logg != nil {
				logg.Warn(ctx, "sslcommerz idempotency mark failed")
			}
			responses.WriteText(w, http.StatusOK, "OK")
			return
		}

		// Pending validations stay unmarked. The merchant panel can replay
		// the IPN once the validation API reports a terminal status.
		responses.WriteText(w, http.StatusOK, "PENDING")
	}
}
