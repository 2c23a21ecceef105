package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client places outbound calls through the Twilio voice REST API.
//
// Bridge call sequencing:
//  1. POST /Calls.json dials the affiliate from the service number.
//  2. When the affiliate answers, Twilio fetches TwiML from the bridge
//     webhook URL, which dials the lead (second leg).
type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

// Error carries the provider's rejection message verbatim so affiliates can
// see why a call was refused (bad number, trial restrictions, etc).
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s", e.Message)
}

func NewClient(accountSID, authToken, fromNumber string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    "https://api.twilio.com/2010-04-01",
		// No provider-level cancellation exists once a call is created;
		// the timeout bounds only the create request itself.
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// BridgeCallbackURL builds the webhook URL Twilio fetches when the affiliate
// answers. leadID is "manual" for ad-hoc dials.
func BridgeCallbackURL(baseURL, leadPhone, leadID, affiliatePhone string) string {
	q := url.Values{}
	q.Set("lead", leadPhone)
	q.Set("leadId", leadID)
	q.Set("affiliatePhone", affiliatePhone)
	return strings.TrimSuffix(baseURL, "/") + "/api/bridge?" + q.Encode()
}

type createCallResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// PlaceBridgeCall creates the first call leg to the affiliate and returns the
// provider-assigned call SID.
func (c *Client) PlaceBridgeCall(ctx context.Context, affiliatePhone, leadPhone, leadID, baseURL string) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", &Error{Message: "Twilio credentials not configured"}
	}
	if c.fromNumber == "" {
		return "", &Error{Message: "Twilio service number not configured"}
	}

	form := url.Values{}
	form.Set("To", affiliatePhone)
	form.Set("From", c.fromNumber)
	form.Set("Url", BridgeCallbackURL(baseURL, leadPhone, leadID, affiliatePhone))
	form.Set("Method", http.MethodPost)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: create call: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var out createCallResponse
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", &Error{StatusCode: resp.StatusCode, Message: msg}
	}
	if out.SID == "" {
		return "", &Error{StatusCode: resp.StatusCode, Message: "provider response missing call sid"}
	}
	return out.SID, nil
}
