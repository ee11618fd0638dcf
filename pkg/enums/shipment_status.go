package enums

import "fmt"

// ShipmentStatus is the canonical vocabulary courier-specific statuses
// normalize into.
type ShipmentStatus string

const (
	ShipmentStatusPending          ShipmentStatus = "pending"
	ShipmentStatusPickupRequested  ShipmentStatus = "pickup_requested"
	ShipmentStatusInTransit        ShipmentStatus = "in_transit"
	ShipmentStatusOutForDelivery   ShipmentStatus = "out_for_delivery"
	ShipmentStatusDelivered        ShipmentStatus = "delivered"
	ShipmentStatusPartialDelivered ShipmentStatus = "partial_delivered"
	ShipmentStatusReturned         ShipmentStatus = "returned"
	ShipmentStatusCancelled        ShipmentStatus = "cancelled"
	ShipmentStatusHold             ShipmentStatus = "hold"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPending,
	ShipmentStatusPickupRequested,
	ShipmentStatusInTransit,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
	ShipmentStatusPartialDelivered,
	ShipmentStatusReturned,
	ShipmentStatusCancelled,
	ShipmentStatusHold,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
