package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnsupportedType is returned when an OTP verification type is not in the
// supported set. It is checked before any network call.
var ErrUnsupportedType = errors.New("unsupported verification type")

// supportedOTPTypes is the fixed set of verification types the provider's
// verify endpoint accepts.
var supportedOTPTypes = map[string]bool{
	"magiclink":    true,
	"recovery":     true,
	"email_change": true,
	"signup":       true,
	"invite":       true,
}

// SupportedOTPType reports whether typ is an accepted verification type.
func SupportedOTPType(typ string) bool {
	return supportedOTPTypes[typ]
}

// ExchangeError is a failure reported by the provider during exchange or
// verification. Its message is safe to surface on the sign-in page.
type ExchangeError struct {
	StatusCode int
	Message    string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.StatusCode, e.Message)
}

// Config holds the configuration for the identity provider client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the identity provider's auth endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new identity provider client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("identity: api key is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ExchangeCode exchanges an authorization code for a session. PKCE-style
// tokens go through the same endpoint, so this serves both the code flow and
// the PKCE token flow.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	body := map[string]string{"auth_code": code}
	return c.postSession(ctx, "/token?grant_type=pkce", body)
}

// VerifyOTP verifies an OTP token hash with its verification type. The type
// is validated against the supported set before any network call.
func (c *Client) VerifyOTP(ctx context.Context, token, typ string) (*Session, error) {
	if !SupportedOTPType(typ) {
		return nil, ErrUnsupportedType
	}
	body := map[string]string{"type": typ, "token_hash": token}
	return c.postSession(ctx, "/verify", body)
}

// GetUser fetches the authenticated user for an access token. A nil identity
// with a nil error means the provider had no user for the token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var id Identity
	if err := json.Unmarshal(respBody, &id); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if id.ID == "" {
		return nil, nil
	}

	return &id, nil
}

// postSession posts a JSON body to an auth endpoint and decodes the session
// response. Provider rejections come back as *ExchangeError.
func (c *Client) postSession(ctx context.Context, path string, body map[string]string) (*Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{
			StatusCode: resp.StatusCode,
			Message:    parseErrorMessage(respBody),
		}
	}

	var session Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if session.AccessToken == "" {
		return nil, &ExchangeError{
			StatusCode: resp.StatusCode,
			Message:    "provider returned no access token",
		}
	}

	return &session, nil
}

// parseErrorMessage extracts a human-readable message from a provider error
// payload. The provider uses a few different shapes depending on endpoint.
func parseErrorMessage(body []byte) string {
	var payload struct {
		Error     string `json:"error"`
		ErrorDesc string `json:"error_description"`
		Msg       string `json:"msg"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.ErrorDesc != "":
			return payload.ErrorDesc
		case payload.Msg != "":
			return payload.Msg
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	return "Verification failed. Magic link expired or invalid."
}
