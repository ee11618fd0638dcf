package payments

import (
	"encoding/json"
	"fmt"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/payloads"
)

// decodedEvent is a queue payload resolved to its concrete type. NaturalKey
// is the gateway-scoped delivery identity used for the durable event log.
type decodedEvent struct {
	OrderID    string
	NaturalKey string
	Gateway    enums.Gateway
	Payload    any
}

type decodeFunc func(raw json.RawMessage) (decodedEvent, error)

// decoders is the payment event registry. Unknown event types are rejected
// rather than guessed at; new types must be registered here.
var decoders = map[enums.QueueEventType]decodeFunc{
	enums.EventStripeConfirmed:     decodeCardPayment,
	enums.EventStripeFailed:        decodeCardPayment,
	enums.EventStripeCanceled:      decodeCardPayment,
	enums.EventStripeRefunded:      decodeCardRefund,
	enums.EventStripeDisputed:      decodeCardDispute,
	enums.EventSSLCommerzConfirmed: decodeRedirectPayment,
	enums.EventSSLCommerzFailed:    decodeRedirectPayment,
	enums.EventSSLCommerzCanceled:  decodeRedirectPayment,
	enums.EventSSLCommerzRefunded:  decodeRedirectPayment,
}

func decodePayload(eventType enums.QueueEventType, raw json.RawMessage) (decodedEvent, error) {
	decode, ok := decoders[eventType]
	if !ok {
		return decodedEvent{}, fmt.Errorf("no decoder registered for event type %q", eventType)
	}
	decoded, err := decode(raw)
	if err != nil {
		return decodedEvent{}, err
	}
	if decoded.OrderID == "" {
		return decodedEvent{}, fmt.Errorf("event type %q missing order id", eventType)
	}
	if decoded.NaturalKey == "" {
		return decodedEvent{}, fmt.Errorf("event type %q missing natural key", eventType)
	}
	return decoded, nil
}

func decodeCardPayment(raw json.RawMessage) (decodedEvent, error) {
	var payload payloads.CardPaymentEvent
	if err := json.Unmarshal(raw, &payload); err != nil {
		return decodedEvent{}, err
	}
	return decodedEvent{
		OrderID:    payload.OrderID,
		NaturalKey: payload.EventID,
		Gateway:    enums.GatewayStripe,
		Payload:    payload,
	}, nil
}

func decodeCardRefund(raw json.RawMessage) (decodedEvent, error) {
	var payload payloads.CardRefundEvent
	if err := json.Unmarshal(raw, &payload); err != nil {
		return decodedEvent{}, err
	}
	return decodedEvent{
		OrderID:    payload.OrderID,
		NaturalKey: payload.EventID,
		Gateway:    enums.GatewayStripe,
		Payload:    payload,
	}, nil
}

func decodeCardDispute(raw json.RawMessage) (decodedEvent, error) {
	var payload payloads.CardDisputeEvent
	if err := json.Unmarshal(raw, &payload); err != nil {
		return decodedEvent{}, err
	}
	return decodedEvent{
		OrderID:    payload.OrderID,
		NaturalKey: payload.EventID,
		Gateway:    enums.GatewayStripe,
		Payload:    payload,
	}, nil
}

func decodeRedirectPayment(raw json.RawMessage) (decodedEvent, error) {
	var payload payloads.RedirectPaymentEvent
	if err := json.Unmarshal(raw, &payload); err != nil {
		return decodedEvent{}, err
	}
	key := payload.EventID
	if key == "" && payload.TranID != "" && payload.ValID != "" {
		key = payload.TranID + ":" + payload.ValID
	}
	return decodedEvent{
		OrderID:    payload.OrderID,
		NaturalKey: key,
		Gateway:    enums.GatewaySSLCommerz,
		Payload:    payload,
	}, nil
}
