package phone

import (
	"regexp"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// Phone number validation, normalization and emergency blocking.
//
// Every outbound call goes through IsBlocked on the server, regardless of any
// client-side check. The dashboard UI is never authoritative.

// e164 is the canonical international format: leading +, first digit 1-9,
// then 6-14 more digits (7-15 digits total).
var e164 = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// IsValidE164 reports whether val is a well-formed E.164 number.
func IsValidE164(val string) bool {
	return e164.MatchString(val)
}

var nonDigits = regexp.MustCompile(`\D`)

// Digits strips everything but 0-9.
func Digits(val string) string {
	return nonDigits.ReplaceAllString(val, "")
}

// Normalize converts free-form input into an E.164 candidate.
//
// Input already carrying a + is returned as-is; validation happens downstream
// in IsValidE164. Otherwise:
//   - 10 digits: assume US/Canada, prepend +1
//   - 11 digits with leading 1: prepend +
//   - anything else: prepend + to the remaining digits (may be invalid)
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "+") {
		return s
	}
	digits := Digits(s)
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	default:
		return "+" + digits
	}
}

// blocked lists emergency and special-service numbers, each with and without
// the US country code 1. Exact digit-string matches only; a real 10+ digit
// number that merely starts with one of these is never blocked.
var blocked = map[string]struct{}{
	"911": {}, "1911": {},
	"112": {}, "1112": {},
	"999": {}, "1999": {},
	"000": {}, "1000": {},
	"111": {}, "1111": {},
	"110": {}, "1110": {},
	"119": {}, "1119": {},
	"100": {}, "1100": {},
	"102": {}, "1102": {},
	"108": {}, "1108": {},
	"211": {}, "1211": {},
	"311": {}, "1311": {},
	"411": {}, "1411": {},
	"511": {}, "1511": {},
	"611": {}, "1611": {},
	"711": {}, "1711": {},
	"811": {}, "1811": {},
}

// IsBlocked reports whether the number is a known emergency or N11/special
// service number. Empty input is blocked (fail closed). Call this after
// normalization and before any outbound call.
func IsBlocked(val string) bool {
	digits := Digits(val)
	if digits == "" {
		return true
	}
	if _, ok := blocked[digits]; ok {
		return true
	}
	if strings.HasPrefix(digits, "1") {
		if _, ok := blocked[digits[1:]]; ok {
			return true
		}
	}
	return false
}

// FormatDisplay renders a stored E.164 number in national format for the
// dashboard. Falls back to the raw string when the number does not parse.
// Display-only; never used for validation or dialing.
func FormatDisplay(val string) string {
	num, err := libphonenumber.Parse(val, "US")
	if err != nil {
		return val
	}
	return libphonenumber.Format(num, libphonenumber.NATIONAL)
}
