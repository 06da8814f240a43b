package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockUser is a user known to the mock identity provider.
type MockUser struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// MockProviderServer is a mock identity provider for testing. It accepts
// registered codes on the exchange endpoint and registered token/type pairs
// on the verify endpoint.
type MockProviderServer struct {
	Server *httptest.Server

	mu           sync.RWMutex
	codes        map[string]*MockUser // code -> user
	otpTokens    map[string]*MockUser // token|type -> user
	accessTokens map[string]*MockUser // access token -> user
	userless     map[string]bool      // codes that exchange fine but have no user record
	nextToken    int

	exchangeCalls int
	verifyCalls   int
}

// NewMockProviderServer creates a new mock identity provider.
func NewMockProviderServer() *MockProviderServer {
	m := &MockProviderServer{
		codes:        make(map[string]*MockUser),
		otpTokens:    make(map[string]*MockUser),
		accessTokens: make(map[string]*MockUser),
		userless:     make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", m.handleToken)
	mux.HandleFunc("/verify", m.handleVerify)
	mux.HandleFunc("/user", m.handleUser)

	m.Server = httptest.NewServer(mux)
	return m
}

// Close shuts down the mock server.
func (m *MockProviderServer) Close() {
	m.Server.Close()
}

// URL returns the base URL of the mock server.
func (m *MockProviderServer) URL() string {
	return m.Server.URL
}

// RegisterCode registers a user that will be returned when the code (or a
// PKCE token, which goes through the same endpoint) is exchanged.
func (m *MockProviderServer) RegisterCode(code string, user *MockUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code] = user
}

// RegisterUserlessCode registers a code whose exchange succeeds but whose
// access token has no user record behind it.
func (m *MockProviderServer) RegisterUserlessCode(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code] = &MockUser{}
	m.userless[code] = true
}

// RegisterOTP registers a user for a token hash + verification type pair.
func (m *MockProviderServer) RegisterOTP(token, typ string, user *MockUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otpTokens[token+"|"+typ] = user
}

// ExchangeCalls returns how many exchange requests the provider received.
func (m *MockProviderServer) ExchangeCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exchangeCalls
}

// VerifyCalls returns how many verify requests the provider received.
func (m *MockProviderServer) VerifyCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.verifyCalls
}

func (m *MockProviderServer) handleToken(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.exchangeCalls++
	m.mu.Unlock()

	if r.URL.Query().Get("grant_type") != "pkce" {
		writeProviderError(w, http.StatusBadRequest, "unsupported grant type")
		return
	}

	var body struct {
		AuthCode string `json:"auth_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProviderError(w, http.StatusBadRequest, "malformed request")
		return
	}

	m.mu.Lock()
	user, ok := m.codes[body.AuthCode]
	userless := m.userless[body.AuthCode]
	m.mu.Unlock()

	if !ok {
		writeProviderError(w, http.StatusForbidden, "Code has expired or is invalid")
		return
	}

	m.writeSession(w, user, userless)
}

func (m *MockProviderServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.verifyCalls++
	m.mu.Unlock()

	var body struct {
		Type      string `json:"type"`
		TokenHash string `json:"token_hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProviderError(w, http.StatusBadRequest, "malformed request")
		return
	}

	m.mu.RLock()
	user, ok := m.otpTokens[body.TokenHash+"|"+body.Type]
	m.mu.RUnlock()

	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"code": 401, "msg": "Token has expired or is invalid"})
		return
	}

	m.writeSession(w, user, false)
}

func (m *MockProviderServer) handleUser(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")

	m.mu.RLock()
	user, ok := m.accessTokens[token]
	m.mu.RUnlock()

	if !ok || user.ID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(user)
}

// writeSession issues an access token for the user and writes the session
// payload the real provider would return.
func (m *MockProviderServer) writeSession(w http.ResponseWriter, user *MockUser, userless bool) {
	m.mu.Lock()
	m.nextToken++
	n := m.nextToken
	accessToken := makeMockJWT(user.ID, user.Email, n)
	if !userless {
		m.accessTokens[accessToken] = user
	}
	m.mu.Unlock()

	resp := map[string]any{
		"access_token":  accessToken,
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": fmt.Sprintf("mock-refresh-%d", n),
	}
	if !userless {
		resp["user"] = user
	}
	json.NewEncoder(w).Encode(resp)
}

func writeProviderError(w http.ResponseWriter, status int, desc string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":             "invalid_grant",
		"error_description": desc,
	})
}

// makeMockJWT builds a structurally valid unsigned JWT so the service can
// read the exp claim.
func makeMockJWT(sub, email string, n int) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, _ := json.Marshal(map[string]any{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"jti":   fmt.Sprintf("mock-%d", n),
	})
	sig := base64.RawURLEncoding.EncodeToString([]byte("mock"))
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "." + sig
}
