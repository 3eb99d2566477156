package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "node-1", false},
		{"unicode", "节点", false},
		{"empty", "", true},
		{"whitespace", " node", true},
		{"control", "node\x00", true},
		{"too long", strings.Repeat("a", 257), true},
		{"max length", strings.Repeat("a", 256), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("node", tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateID(%q) code = %v, want %v", tt.id, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateFinite(t *testing.T) {
	if err := ValidateFinite("x", 1, -2, 0); err != nil {
		t.Errorf("ValidateFinite() unexpected error: %v", err)
	}
	if err := ValidateFinite("x", 1, math.NaN()); err == nil {
		t.Error("ValidateFinite() should reject NaN")
	}
	if err := ValidateFinite("x", math.Inf(1)); err == nil {
		t.Error("ValidateFinite() should reject +Inf")
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("grid", 10); err != nil {
		t.Errorf("ValidatePositive() unexpected error: %v", err)
	}
	if err := ValidatePositive("grid", 0); !Is(err, ErrCodeInvalidConfiguration) {
		t.Errorf("ValidatePositive(0) code = %v, want %v", GetCode(err), ErrCodeInvalidConfiguration)
	}
}
