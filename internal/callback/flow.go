// Package callback contains the pure decision logic for completing a
// passwordless login: classifying the magic-link parameters, resolving the
// account role, and computing the final redirect.
package callback

import "strings"

// PKCETokenPrefix marks a token as a PKCE-style token that is accepted by the
// same exchange operation as an authorization code.
const PKCETokenPrefix = "pkce_"

// TypeSignup is the verification type that routes a token through the PKCE
// exchange even without the pkce_ prefix.
const TypeSignup = "signup"

// Request is the immutable value parsed from the inbound callback URL.
type Request struct {
	Code   string // authorization/PKCE code
	Token  string // PKCE token or OTP token hash
	Type   string // verification type for the OTP flow, or "signup" for PKCE
	Next   string // relative path to redirect to on success
	Email  string // optional hint echoed back on exchange errors
	Origin string // scheme+host of the inbound request
}

// Flow identifies which verification protocol applies to a callback request.
type Flow int

const (
	// FlowInvalid means no usable code or token/type pair was supplied.
	FlowInvalid Flow = iota

	// FlowCode exchanges an authorization code for a session.
	FlowCode

	// FlowPKCEToken exchanges a PKCE-style token through the code exchange.
	FlowPKCEToken

	// FlowOTPToken verifies an OTP token hash with its verification type.
	FlowOTPToken
)

// String returns the flow name for logging.
func (f Flow) String() string {
	switch f {
	case FlowCode:
		return "code"
	case FlowPKCEToken:
		return "pkce_token"
	case FlowOTPToken:
		return "otp_token"
	default:
		return "invalid"
	}
}

// Classify inspects the callback parameters and decides which verification
// protocol applies. Code wins any tie: if a code is present the token-based
// flows are never considered. Pure function, no side effects.
func Classify(req Request) Flow {
	if req.Code != "" {
		return FlowCode
	}
	if req.Token != "" && (strings.HasPrefix(req.Token, PKCETokenPrefix) || req.Type == TypeSignup) {
		return FlowPKCEToken
	}
	if req.Token != "" && req.Type != "" {
		return FlowOTPToken
	}
	return FlowInvalid
}
