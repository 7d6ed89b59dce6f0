// Package validation provides input validation for group entities.
package validation

import "fmt"

// Field length limits, matching the storage schema.
const (
	MaxGroupNameLength        = 50
	MaxGroupDescriptionLength = 1000
	MaxRequestMessageLength   = 250
)

// ValidateGroupName validates a group name.
func ValidateGroupName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxGroupNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxGroupNameLength)
	}
	return nil
}

// ValidateGroupDescription validates an optional group description.
func ValidateGroupDescription(description string) error {
	if len(description) > MaxGroupDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", MaxGroupDescriptionLength)
	}
	return nil
}

// ValidateRequestMessage validates an optional join request message.
func ValidateRequestMessage(message string) error {
	if len(message) > MaxRequestMessageLength {
		return fmt.Errorf("message must be at most %d characters", MaxRequestMessageLength)
	}
	return nil
}

// ValidateRequestResolution validates the status a join request is being
// resolved to. A request can only be accepted or declined; it can never
// be moved back to pending.
func ValidateRequestResolution(status string) error {
	switch status {
	case "accepted", "declined":
		return nil
	case "pending":
		return fmt.Errorf("a request cannot be set back to pending")
	default:
		return fmt.Errorf("unknown status: %q", status)
	}
}
