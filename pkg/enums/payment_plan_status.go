package enums

import "fmt"

// PaymentPlanStatus tracks a deposit/balance split-payment plan.
type PaymentPlanStatus string

const (
	PaymentPlanActive  PaymentPlanStatus = "active"
	PaymentPlanSettled PaymentPlanStatus = "settled"
)

var validPaymentPlanStatuses = []PaymentPlanStatus{
	PaymentPlanActive,
	PaymentPlanSettled,
}

// IsValid reports whether the value is a known PaymentPlanStatus.
func (p PaymentPlanStatus) IsValid() bool {
	for _, candidate := range validPaymentPlanStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentPlanStatus converts raw input into a PaymentPlanStatus.
func ParsePaymentPlanStatus(value string) (PaymentPlanStatus, error) {
	for _, candidate := range validPaymentPlanStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment plan status %q", value)
}
