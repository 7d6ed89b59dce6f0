package validation

import (
	"strings"
	"testing"
)

func TestValidateGroupName(t *testing.T) {
	if err := ValidateGroupName("Hikers"); err != nil {
		t.Errorf("Expected valid name, got %v", err)
	}
	if err := ValidateGroupName(""); err == nil {
		t.Error("Expected error for empty name")
	}
	if err := ValidateGroupName(strings.Repeat("a", MaxGroupNameLength)); err != nil {
		t.Errorf("Expected name at the limit to be valid, got %v", err)
	}
	if err := ValidateGroupName(strings.Repeat("a", MaxGroupNameLength+1)); err == nil {
		t.Error("Expected error for name over the limit")
	}
}

func TestValidateGroupDescription(t *testing.T) {
	if err := ValidateGroupDescription(""); err != nil {
		t.Errorf("Expected empty description to be valid, got %v", err)
	}
	if err := ValidateGroupDescription(strings.Repeat("a", MaxGroupDescriptionLength+1)); err == nil {
		t.Error("Expected error for description over the limit")
	}
}

func TestValidateRequestMessage(t *testing.T) {
	if err := ValidateRequestMessage("let me in"); err != nil {
		t.Errorf("Expected valid message, got %v", err)
	}
	if err := ValidateRequestMessage(strings.Repeat("a", MaxRequestMessageLength+1)); err == nil {
		t.Error("Expected error for message over the limit")
	}
}

func TestValidateRequestResolution(t *testing.T) {
	if err := ValidateRequestResolution("accepted"); err != nil {
		t.Errorf("Expected accepted to be valid, got %v", err)
	}
	if err := ValidateRequestResolution("declined"); err != nil {
		t.Errorf("Expected declined to be valid, got %v", err)
	}
	if err := ValidateRequestResolution("pending"); err == nil {
		t.Error("Expected error when resolving back to pending")
	}
	if err := ValidateRequestResolution("rejected"); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.HasErrors() {
		t.Error("Expected no errors initially")
	}
	errs.Add("name", "", "name is required")
	errs.Add("description", "", "too long")
	if !errs.HasErrors() {
		t.Error("Expected errors after Add")
	}
	if got := errs.Error(); got != "name: name is required; description: too long" {
		t.Errorf("Unexpected error string: %q", got)
	}
}

func TestValidationErrorValue(t *testing.T) {
	err := NewValidationError("operator", "like", "invalid operator")
	if got := err.Error(); got != `operator "like": invalid operator` {
		t.Errorf("Unexpected error string: %q", got)
	}
	err = NewValidationError("name", "", "name is required")
	if got := err.Error(); got != "name: name is required" {
		t.Errorf("Unexpected error string: %q", got)
	}
}
