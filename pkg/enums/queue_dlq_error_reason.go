package enums

import "fmt"

// QueueDLQErrorReason records why a queue message was parked.
type QueueDLQErrorReason string

const (
	QueueDLQReasonMaxAttempts  QueueDLQErrorReason = "max_attempts"
	QueueDLQReasonNonRetryable QueueDLQErrorReason = "non_retryable"
)

var validQueueDLQErrorReasons = []QueueDLQErrorReason{
	QueueDLQReasonMaxAttempts,
	QueueDLQReasonNonRetryable,
}

// IsValid reports whether the value is a known QueueDLQErrorReason.
func (r QueueDLQErrorReason) IsValid() bool {
	for _, candidate := range validQueueDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseQueueDLQErrorReason converts raw input into a QueueDLQErrorReason.
func ParseQueueDLQErrorReason(value string) (QueueDLQErrorReason, error) {
	for _, candidate := range validQueueDLQErrorReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dlq error reason %q", value)
}
