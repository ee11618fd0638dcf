package webhooks

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bonikcommerce/bonik-backend/api/responses"
	"github.com/bonikcommerce/bonik-backend/api/validators"
	courierwebhook "github.com/bonikcommerce/bonik-backend/internal/webhooks/courier"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/metrics"
)

type CourierWebhookService interface {
	HandleStatusUpdate(ctx context.Context, update courierwebhook.StatusUpdate) (courierwebhook.Outcome, error)
}

type courierCallback struct {
	ConsignmentID string `json:"consignment_id" validate:"required"`
	Status        string `json:"status" validate:"required"`
}

// CourierWebhook ingests tracking callbacks from the delivery partners.
// Couriers treat any non-200 as undelivered, so recognized-but-unusable
// payloads are acknowledged and only infrastructure faults return a 5xx.
func CourierWebhook(svc CourierWebhookService, guard idempotencyGuard, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		courier, err := enums.ParseGateway(strings.TrimSpace(chi.URLParam(r, "courier")))
		if err != nil || (courier != enums.GatewayPathao && courier != enums.GatewaySteadfast) {
			m.IncRejected("courier", "unknown_courier")
			responses.WriteText(w, http.StatusOK, "IGNORED")
			return
		}
		gateway := courier.String()
		m.IncReceived(gateway)

		if svc == nil || guard == nil {
			// The courier cannot fix a gate that is not configured here.
			m.IncRejected(gateway, "unconfigured")
			if logg != nil {
				logg.Warn(ctx, "courier callback dropped, gate not configured")
			}
			responses.WriteText(w, http.StatusOK, "IGNORED")
			return
		}

		var body courierCallback
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			m.IncRejected(gateway, "malformed_body")
			responses.WriteText(w, http.StatusOK, "IGNORED")
			return
		}

		update := courierwebhook.StatusUpdate{
			Courier:       courier,
			ConsignmentID: strings.TrimSpace(body.ConsignmentID),
			RawStatus:     strings.TrimSpace(body.Status),
		}
		deliveryKey := update.NaturalKey()

		if logg != nil {
			ctx = logg.WithEventID(logg.WithGateway(ctx, gateway), deliveryKey)
		}

		seen, err := guard.Seen(ctx, gateway, deliveryKey)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "courier idempotency check failed", err)
			}
			responses.WriteText(w, http.StatusServiceUnavailable, "RETRY")
			return
		}
		if seen {
			m.IncDuplicate(gateway)
			responses.WriteText(w, http.StatusOK, "DUPLICATE")
			return
		}

		outcome, err := svc.HandleStatusUpdate(ctx, update)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "courier status update failed", err)
			}
			responses.WriteText(w, http.StatusServiceUnavailable, "RETRY")
			return
		}

		switch outcome {
		case courierwebhook.OutcomeApplied:
			if err := guard.Mark(ctx, gateway, deliveryKey); err != nil && logg != nil {
				logg.Warn(ctx, "courier idempotency mark failed")
			}
			responses.WriteText(w, http.StatusOK, "OK")
		case courierwebhook.OutcomeDuplicate:
			m.IncDuplicate(gateway)
			responses.WriteText(w, http.StatusOK, "DUPLICATE")
		default:
			m.IncRejected(gateway, "unknown_shipment")
			responses.WriteText(w, http.StatusOK, "IGNORED")
		}
	}
}
