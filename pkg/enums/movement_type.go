package enums

import "fmt"

// MovementType classifies a stock movement in the inventory ledger.
type MovementType string

const (
	MovementAdjusted  MovementType = "adjusted"
	MovementReserved  MovementType = "reserved"
	MovementReleased  MovementType = "released"
	MovementSold      MovementType = "sold"
	MovementRestocked MovementType = "restocked"
)

var validMovementTypes = []MovementType{
	MovementAdjusted,
	MovementReserved,
	MovementReleased,
	MovementSold,
	MovementRestocked,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
