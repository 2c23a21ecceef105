package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestBridgeCallbackURL_EncodesParams(t *testing.T) {
	u := BridgeCallbackURL("https://example.com/", "+15551234567", "lead-1", "+15557654321")
	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if parsed.Path != "/api/bridge" {
		t.Fatalf("unexpected path %q", parsed.Path)
	}
	q := parsed.Query()
	if q.Get("lead") != "+15551234567" {
		t.Fatalf("lead not round-tripped: %q", q.Get("lead"))
	}
	if q.Get("leadId") != "lead-1" || q.Get("affiliatePhone") != "+15557654321" {
		t.Fatalf("unexpected query: %v", q)
	}
	if strings.Contains(u, " ") {
		t.Fatalf("url not encoded: %q", u)
	}
}

func TestPlaceBridgeCall_Success(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = r.PostForm
		user, _, ok := r.BasicAuth()
		if !ok || user != "AC123" {
			t.Fatalf("expected basic auth with account sid")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"CA999"}`))
	}))
	defer srv.Close()

	c := NewClient("AC123", "token", "+15550001111")
	c.baseURL = srv.URL

	sid, err := c.PlaceBridgeCall(context.Background(), "+15557654321", "+15551234567", "lead-1", "https://desk.example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sid != "CA999" {
		t.Fatalf("expected CA999, got %q", sid)
	}
	if gotForm.Get("To") != "+15557654321" {
		t.Fatalf("first leg must dial the affiliate, got %q", gotForm.Get("To"))
	}
	if gotForm.Get("From") != "+15550001111" {
		t.Fatalf("expected service number as From, got %q", gotForm.Get("From"))
	}
	if !strings.Contains(gotForm.Get("Url"), "/api/bridge?") {
		t.Fatalf("expected bridge callback url, got %q", gotForm.Get("Url"))
	}
}

func TestPlaceBridgeCall_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The 'To' number is not a valid phone number.","code":21211}`))
	}))
	defer srv.Close()

	c := NewClient("AC123", "token", "+15550001111")
	c.baseURL = srv.URL

	_, err := c.PlaceBridgeCall(context.Background(), "+1555", "+15551234567", "lead-1", "https://desk.example.com")
	if err == nil {
		t.Fatalf("expected error")
	}
	gwErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	// Provider message surfaces verbatim for affiliate debugging.
	if !strings.Contains(gwErr.Message, "not a valid phone number") {
		t.Fatalf("expected provider message, got %q", gwErr.Message)
	}
}

func TestPlaceBridgeCall_MissingCredentials(t *testing.T) {
	c := NewClient("", "", "+15550001111")
	_, err := c.PlaceBridgeCall(context.Background(), "+15557654321", "+15551234567", "lead-1", "https://desk.example.com")
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := err.(*Error); !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
}
