package carpool

import (
	"fmt"
	"strings"
)

// Role is what a member does on a given day. The values are the
// single-letter codes persisted in the entries table.
type Role string

const (
	Driver Role = "D"
	Rider  Role = "R"
	Off    Role = "O"
)

// Roles lists every valid role in display order.
var Roles = []Role{Driver, Rider, Off}

func (r Role) Valid() bool {
	switch r {
	case Driver, Rider, Off:
		return true
	}
	return false
}

// Name returns the display name, or the raw value for an invalid role.
func (r Role) Name() string {
	switch r {
	case Driver:
		return "Driver"
	case Rider:
		return "Rider"
	case Off:
		return "Off"
	}
	return string(r)
}

// ParseRole accepts the letter codes and the display names, ignoring case
// and surrounding space.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D", "DRIVER":
		return Driver, nil
	case "R", "RIDER":
		return Rider, nil
	case "O", "OFF":
		return Off, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}
