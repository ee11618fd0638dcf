package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/bonikcommerce/bonik-backend/api/responses"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	pkgerrors "github.com/bonikcommerce/bonik-backend/pkg/errors"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/metrics"
)

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type idempotencyGuard interface {
	Seen(ctx context.Context, scope, key string) (bool, error)
	Mark(ctx context.Context, scope, key string) error
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook verifies the Stripe signature, screens duplicates and hands
// payment events to the enqueue service. Stripe reads the status code:
// 400 tells it the delivery is unverifiable, 5xx asks for a retry, and
// everything handled, deliberately ignored, or unconfigurable on our side
// gets a 200.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard idempotencyGuard, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	gateway := enums.GatewayStripe.String()

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		m.IncReceived(gateway)

		if svc == nil || client == nil || client.SigningSecret() == "" || guard == nil {
			// Stripe cannot fix a missing configuration on our side;
			// anything but a 200 makes it hot-loop redeliveries.
			m.IncRejected(gateway, "unconfigured")
			if logg != nil {
				logg.Warn(ctx, "stripe webhook dropped, gate not configured")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			m.IncRejected(gateway, "signature_missing")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			m.IncRejected(gateway, "signature_invalid")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "verify signature"))
			return
		}

		if logg != nil {
			ctx = logg.WithEventID(logg.WithGateway(ctx, gateway), event.ID)
		}

		seen, err := guard.Seen(ctx, gateway, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if seen {
			m.IncDuplicate(gateway)
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			// The key stays unset so Stripe redelivers once the fault clears.
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := guard.Mark(ctx, gateway, event.ID); err != nil && logg != nil {
			logg.Warn(ctx, "stripe idempotency mark failed")
		}

		if logg != nil {
			logg.Info(ctx, "stripe event accepted")
		}
		responses.WriteSuccess(w, nil)
	}
}
