package handler

// User-visible error messages for the sign-in page.
const (
	// ErrMsgNoCode is shown when the callback carries no usable code or
	// token/type pair.
	ErrMsgNoCode = "No verification code found. Magic link expired or invalid."

	// ErrMsgUnsupportedType is shown when the OTP verification type is not
	// in the supported set.
	ErrMsgUnsupportedType = "Unsupported verification type."

	// ErrMsgExchangeFailed is the fallback when the provider failed without
	// a usable message (e.g. a transport error or timeout).
	ErrMsgExchangeFailed = "Verification failed. Magic link expired or invalid."
)

// sessionIDLength is the length of the opaque session id stored in the
// cookie.
const sessionIDLength = 32
