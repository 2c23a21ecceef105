package gateway

import (
	"strings"
	"testing"
)

func TestBridgeTwiML(t *testing.T) {
	c := NewClient("AC123", "token", "+15550001111")
	out, err := c.BridgeTwiML("+15551234567")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, want := range []string{"<Response>", "Connecting you to your callback.", `callerId="+15550001111"`, "<Number>+15551234567</Number>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in twiml:\n%s", want, out)
		}
	}
	if !strings.Contains(out, `voice="alice"`) || !strings.Contains(out, `language="en-US"`) {
		t.Fatalf("expected say attributes in twiml:\n%s", out)
	}
}

func TestErrorTwiML(t *testing.T) {
	out, err := ErrorTwiML("Sorry, something went wrong. The lead number is missing.")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(out, "The lead number is missing.") {
		t.Fatalf("expected message in twiml:\n%s", out)
	}
	if !strings.Contains(out, "<Hangup") {
		t.Fatalf("expected hangup verb:\n%s", out)
	}
}

func TestTwiMLEscapesContent(t *testing.T) {
	out, err := ErrorTwiML(`say "<hi>" & bye`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.Contains(out, "<hi>") {
		t.Fatalf("content not escaped:\n%s", out)
	}
}
