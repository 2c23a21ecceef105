package baseurl

import "strings"

// Resolve determines the public base URL the telephony provider will use to
// fetch bridge instructions mid-call.
//
// Priority:
//  1. explicit override (PUBLIC_BASE_URL — e.g. an ngrok tunnel in local dev)
//  2. platform-provided hostname (PLATFORM_HOST, always https)
//  3. the Host header of the incoming request
//
// Returns "" when nothing usable exists; callers must refuse to place a call
// in that case, because the provider cannot deliver its webhook.
func Resolve(override, platformHost, hostHint string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	if s := strings.TrimSpace(platformHost); s != "" {
		return "https://" + s
	}
	if hostHint != "" {
		proto := "https"
		if strings.Contains(hostHint, "localhost") {
			proto = "http"
		}
		return proto + "://" + hostHint
	}
	return ""
}

// Usable reports whether u can be handed to the provider as a callback base.
// Loopback addresses are unreachable from the provider's network.
func Usable(u string) bool {
	if u == "" {
		return false
	}
	return !strings.Contains(u, "localhost") && !strings.Contains(u, "127.0.0.1")
}
