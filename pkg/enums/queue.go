package enums

import "fmt"

// QueueAggregateType identifies the aggregate a queue message refers to.
type QueueAggregateType string

const (
	AggregateOrder    QueueAggregateType = "order"
	AggregateShipment QueueAggregateType = "shipment"
	AggregateVariant  QueueAggregateType = "variant"
)

var validQueueAggregateTypes = []QueueAggregateType{
	AggregateOrder,
	AggregateShipment,
	AggregateVariant,
}

// IsValid reports whether the value is a known QueueAggregateType.
func (a QueueAggregateType) IsValid() bool {
	for _, candidate := range validQueueAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseQueueAggregateType converts raw input into a QueueAggregateType.
func ParseQueueAggregateType(value string) (QueueAggregateType, error) {
	for _, candidate := range validQueueAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// QueueEventType is the discriminator of the queue message union. Types are
// additive: a tag is never repurposed for a different payload shape.
type QueueEventType string

const (
	EventStripeConfirmed QueueEventType = "payment.stripe.confirmed"
	EventStripeFailed    QueueEventType = "payment.stripe.failed"
	EventStripeCanceled  QueueEventType = "payment.stripe.canceled"
	EventStripeRefunded  QueueEventType = "payment.stripe.refunded"
	EventStripeDisputed  QueueEventType = "payment.stripe.disputed"

	EventSSLCommerzConfirmed QueueEventType = "payment.sslcommerz.confirmed"
	EventSSLCommerzFailed    QueueEventType = "payment.sslcommerz.failed"
	EventSSLCommerzCanceled  QueueEventType = "payment.sslcommerz.canceled"
	EventSSLCommerzRefunded  QueueEventType = "payment.sslcommerz.refunded"

	EventOrderNotification QueueEventType = "order.notification"
)

var validQueueEventTypes = []QueueEventType{
	EventStripeConfirmed,
	EventStripeFailed,
	EventStripeCanceled,
	EventStripeRefunded,
	EventStripeDisputed,
	EventSSLCommerzConfirmed,
	EventSSLCommerzFailed,
	EventSSLCommerzCanceled,
	EventSSLCommerzRefunded,
	EventOrderNotification,
}

// String implements fmt.Stringer.
func (e QueueEventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known QueueEventType.
func (e QueueEventType) IsValid() bool {
	for _, candidate := range validQueueEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// IsPaymentEvent reports whether the type belongs to the payment processor.
func (e QueueEventType) IsPaymentEvent() bool {
	return e != EventOrderNotification && e.IsValid()
}

// ParseQueueEventType converts raw input into a QueueEventType.
func ParseQueueEventType(value string) (QueueEventType, error) {
	for _, candidate := range validQueueEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid queue event type %q", value)
}
