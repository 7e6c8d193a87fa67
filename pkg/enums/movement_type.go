package enums

import "fmt"

// MovementType maps to the movement_type_enum enum in Postgres.
type MovementType string

const (
	MovementReservation MovementType = "reservation"
	MovementSale        MovementType = "sale"
	MovementRelease     MovementType = "release"
	MovementExpired     MovementType = "expired"
)

var validMovementTypes = []MovementType{
	MovementReservation,
	MovementSale,
	MovementRelease,
	MovementExpired,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value matches the canonical movement enum.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsClosing reports whether the movement settles an open reservation.
func (m MovementType) IsClosing() bool {
	return m == MovementSale || m == MovementRelease || m == MovementExpired
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
