package auth

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{AccessCode: "open-sesame", SessionSecret: "s3cret", SessionTTL: time.Hour})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return m
}

func TestNewManager_RequiresCodeAndSecret(t *testing.T) {
	if _, err := NewManager(Config{SessionSecret: "x"}); err == nil {
		t.Fatalf("expected error without access code")
	}
	if _, err := NewManager(Config{AccessCode: "x"}); err == nil {
		t.Fatalf("expected error without session secret")
	}
}

func TestCheckAccessCode(t *testing.T) {
	m := newTestManager(t)
	if !m.CheckAccessCode("open-sesame") {
		t.Fatalf("expected valid code to pass")
	}
	if m.CheckAccessCode("wrong") || m.CheckAccessCode("") {
		t.Fatalf("expected invalid code to fail")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0)

	tok, err := m.IssueSession(now)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := m.VerifySession(tok, now.Add(30*time.Minute)); err != nil {
		t.Fatalf("expected valid session, got %v", err)
	}
	if err := m.VerifySession(tok, now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expiry")
	}
}

func TestAuthorize(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0)

	if !m.Authorize("open-sesame", "", now) {
		t.Fatalf("expected access code to authorize")
	}
	tok, err := m.IssueSession(now)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !m.Authorize("", "Bearer "+tok, now) {
		t.Fatalf("expected bearer session to authorize")
	}
	if m.Authorize("wrong", "Bearer garbage", now) {
		t.Fatalf("expected rejection")
	}
	if m.Authorize("", "", now) {
		t.Fatalf("expected rejection with no credentials")
	}
}

func TestBearerToken(t *testing.T) {
	if BearerToken("Bearer abc") != "abc" {
		t.Fatalf("expected token extraction")
	}
	if BearerToken("Basic abc") != "" || BearerToken("") != "" {
		t.Fatalf("expected empty for non-bearer")
	}
}
