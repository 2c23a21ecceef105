package phone

import "testing"

func TestIsValidE164(t *testing.T) {
	valid := []string{"+15551234567", "+442071838750", "+1234567"}
	for _, v := range valid {
		if !IsValidE164(v) {
			t.Fatalf("expected %q to be valid", v)
		}
	}
	invalid := []string{"5551234567", "+0123456789", "+1555", "", "+1555123456789012", "+1 555 123 4567"}
	for _, v := range invalid {
		if IsValidE164(v) {
			t.Fatalf("expected %q to be invalid", v)
		}
	}
}

func TestNormalize_TenDigits(t *testing.T) {
	if got := Normalize("5551234567"); got != "+15551234567" {
		t.Fatalf("expected +15551234567, got %q", got)
	}
	if got := Normalize("(555) 123-4567"); got != "+15551234567" {
		t.Fatalf("expected +15551234567, got %q", got)
	}
}

func TestNormalize_ElevenDigitsLeadingOne(t *testing.T) {
	if got := Normalize("15551234567"); got != "+15551234567" {
		t.Fatalf("expected +15551234567, got %q", got)
	}
}

func TestNormalize_PlusPassthrough(t *testing.T) {
	// + input is returned unchanged; digit-count validation is downstream.
	if got := Normalize("+442071838750"); got != "+442071838750" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	if got := Normalize("+1555"); got != "+1555" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestNormalize_OtherLengths(t *testing.T) {
	if got := Normalize("911"); got != "+911" {
		t.Fatalf("expected +911, got %q", got)
	}
}

func TestIsBlocked(t *testing.T) {
	blockedInputs := []string{"911", "1911", "+1911", "112", "999", "411", "811", "9-1-1", ""}
	for _, v := range blockedInputs {
		if !IsBlocked(v) {
			t.Fatalf("expected %q to be blocked", v)
		}
	}
	// Real numbers that merely start with a short code must pass.
	allowed := []string{"+19115551234", "9115551234", "+15551234567", "4115551234"}
	for _, v := range allowed {
		if IsBlocked(v) {
			t.Fatalf("expected %q to be allowed", v)
		}
	}
}

func TestFormatDisplay_FallsBackOnGarbage(t *testing.T) {
	if got := FormatDisplay("not-a-number"); got != "not-a-number" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
