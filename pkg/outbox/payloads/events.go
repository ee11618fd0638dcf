package payloads

import (
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// CardPaymentEvent carries a Stripe payment intent outcome. Amounts stay in
// minor units until the payment processor converts them.
type CardPaymentEvent struct {
	OrderID       string `json:"order_id"`
	EventID       string `json:"event_id"`
	TransactionID string `json:"transaction_id"`
	AmountMinor   int64  `json:"amount_minor"`
	Currency      string `json:"currency"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// CardRefundEvent carries a Stripe charge refund.
type CardRefundEvent struct {
	OrderID     string `json:"order_id"`
	EventID     string `json:"event_id"`
	ChargeID    string `json:"charge_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// CardDisputeEvent carries a Stripe chargeback opening.
type CardDisputeEvent struct {
	OrderID     string `json:"order_id"`
	EventID     string `json:"event_id"`
	DisputeID   string `json:"dispute_id"`
	Reason      string `json:"reason,omitempty"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// RedirectPaymentEvent carries an SSLCommerz IPN outcome after validation.
// Amount is the major-unit string returned by the validation API.
type RedirectPaymentEvent struct {
	OrderID    string `json:"order_id"`
	EventID    string `json:"event_id"`
	TranID     string `json:"tran_id"`
	ValID      string `json:"val_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	CardType   string `json:"card_type,omitempty"`
	BankTranID string `json:"bank_tran_id,omitempty"`
	RiskLevel  string `json:"risk_level,omitempty"`
}

// OrderNotificationEvent asks the notification consumer to record an alert.
type OrderNotificationEvent struct {
	OrderID string                 `json:"order_id"`
	Type    enums.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
}
