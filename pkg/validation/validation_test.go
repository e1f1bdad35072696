package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "user@example.com", false},
		{"valid with plus", "user+tag@example.com", false},
		{"empty", "", true},
		{"no at", "userexample.com", true},
		{"no tld", "user@example", true},
		{"too long", strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("secret1"); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Error("expected error for short password")
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("expected error for empty password")
	}
	if err := ValidatePassword(strings.Repeat("x", 129)); err == nil {
		t.Error("expected error for oversized password")
	}
}

func TestValidateAge(t *testing.T) {
	tests := []struct {
		age     int
		wantErr bool
	}{
		{1, false},
		{120, false},
		{30, false},
		{0, true},
		{-5, true},
		{121, true},
	}

	for _, tt := range tests {
		err := ValidateAge(tt.age)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAge(%d) error = %v, wantErr %v", tt.age, err, tt.wantErr)
		}
	}
}

func TestValidateMeetingID(t *testing.T) {
	if err := ValidateMeetingID("m1"); err != nil {
		t.Errorf("expected valid meeting id, got %v", err)
	}
	if err := ValidateMeetingID("meeting_abc-123"); err != nil {
		t.Errorf("expected valid meeting id, got %v", err)
	}
	if err := ValidateMeetingID(""); err == nil {
		t.Error("expected error for empty meeting id")
	}
	if err := ValidateMeetingID("has spaces"); err == nil {
		t.Error("expected error for meeting id with spaces")
	}
	if err := ValidateMeetingID(strings.Repeat("a", 101)); err == nil {
		t.Error("expected error for oversized meeting id")
	}
}

func TestValidateUserID(t *testing.T) {
	// provider-keyed ids like "github:12345" are valid
	if err := ValidateUserID("github:12345"); err != nil {
		t.Errorf("expected valid provider-keyed id, got %v", err)
	}
	if err := ValidateUserID("u1"); err != nil {
		t.Errorf("expected valid user id, got %v", err)
	}
	if err := ValidateUserID(""); err == nil {
		t.Error("expected error for empty user id")
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Ada", "name"); err != nil {
		t.Errorf("expected valid name, got %v", err)
	}
	if err := ValidateName("  ", "name"); err == nil {
		t.Error("expected error for blank name")
	}
	if err := ValidateName(strings.Repeat("x", 101), "name"); err == nil {
		t.Error("expected error for oversized name")
	}
}

func TestValidateChatMessage(t *testing.T) {
	if err := ValidateChatMessage("hi"); err != nil {
		t.Errorf("expected valid message, got %v", err)
	}
	if err := ValidateChatMessage(""); err == nil {
		t.Error("expected error for empty message")
	}
	if err := ValidateChatMessage(strings.Repeat("x", 4001)); err == nil {
		t.Error("expected error for oversized message")
	}
}
