package calls

import "errors"

// Flow errors, mapped to HTTP statuses at the transport layer only.
// Gateway rejections keep their own type (*gateway.Error) so the provider's
// message reaches the affiliate verbatim.
var (
	// ErrValidation covers bad or missing caller input.
	ErrValidation = errors.New("invalid request")
	// ErrNotFound means the lead identity did not resolve.
	ErrNotFound = errors.New("lead not found")
	// ErrBlocked rejects emergency and special-service numbers.
	ErrBlocked = errors.New("emergency and special service numbers cannot be called")
	// ErrNoCallbackBase means no publicly reachable webhook address exists;
	// the provider could never deliver the bridge callback.
	ErrNoCallbackBase = errors.New("no public callback address: set PUBLIC_BASE_URL to a reachable URL (e.g. an ngrok tunnel) and restart")
)
