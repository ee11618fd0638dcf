package shipments

import (
	"strings"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// Per-courier raw status mappings. Unknown raw statuses map to hold so a
// new provider status never silently drops a consignment.
var pathaoStatuses = map[string]enums.ShipmentStatus{
	"pickup_requested":      enums.ShipmentStatusPickupRequested,
	"assigned_for_pickup":   enums.ShipmentStatusPickupRequested,
	"picked":                enums.ShipmentStatusInTransit,
	"in_transit":            enums.ShipmentStatusInTransit,
	"at_the_sorting_hub":    enums.ShipmentStatusInTransit,
	"last_mile_hub":         enums.ShipmentStatusOutForDelivery,
	"assigned_for_delivery": enums.ShipmentStatusOutForDelivery,
	"delivered":             enums.ShipmentStatusDelivered,
	"partial_delivery":      enums.ShipmentStatusPartialDelivered,
	"return":                enums.ShipmentStatusReturned,
	"delivery_failed":       enums.ShipmentStatusHold,
	"pickup_cancelled":      enums.ShipmentStatusCancelled,
	"on_hold":               enums.ShipmentStatusHold,
}

var steadfastStatuses = map[string]enums.ShipmentStatus{
	"pending":                            enums.ShipmentStatusPending,
	"delivered_approval_pending":         enums.ShipmentStatusOutForDelivery,
	"partial_delivered_approval_pending": enums.ShipmentStatusOutForDelivery,
	"cancelled_approval_pending":         enums.ShipmentStatusHold,
	"unknown_approval_pending":           enums.ShipmentStatusHold,
	"delivered":                          enums.ShipmentStatusDelivered,
	"partial_delivered":                  enums.ShipmentStatusPartialDelivered,
	"cancelled":                          enums.ShipmentStatusCancelled,
	"hold":                               enums.ShipmentStatusHold,
	"in_review":                          enums.ShipmentStatusHold,
	"unknown":                            enums.ShipmentStatusHold,
}

// NormalizeStatus maps a courier's raw status string onto the canonical
// tracking status. The second return reports whether the raw value was
// recognized.
func NormalizeStatus(courier enums.Gateway, raw string) (enums.ShipmentStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	var table map[string]enums.ShipmentStatus
	switch courier {
	case enums.GatewayPathao:
		table = pathaoStatuses
	case enums.GatewaySteadfast:
		table = steadfastStatuses
	default:
		return enums.ShipmentStatusHold, false
	}
	if status, ok := table[key]; ok {
		return status, true
	}
	return enums.ShipmentStatusHold, false
}
