package enums

// WebhookOutcome records how a webhook event ultimately resolved.
type WebhookOutcome string

const (
	WebhookOutcomeProcessed WebhookOutcome = "processed"
	WebhookOutcomeFailed    WebhookOutcome = "failed"
)

var validWebhookOutcomes = []WebhookOutcome{
	WebhookOutcomeProcessed,
	WebhookOutcomeFailed,
}

// String implements fmt.Stringer.
func (w WebhookOutcome) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WebhookOutcome.
func (w WebhookOutcome) IsValid() bool {
	for _, candidate := range validWebhookOutcomes {
		if candidate == w {
			return true
		}
	}
	return false
}
