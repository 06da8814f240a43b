package testutil

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// TestClient is an HTTP client for testing the callback service.
type TestClient struct {
	*http.Client
	BaseURL string
}

// NewTestClient creates a new test client that does not follow redirects, so
// tests can inspect them.
func NewTestClient(baseURL string) *TestClient {
	jar, _ := cookiejar.New(nil)
	return &TestClient{
		Client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		BaseURL: baseURL,
	}
}

// Callback performs a GET against /auth/callback with the given query
// parameters.
func (c *TestClient) Callback(params url.Values) (*http.Response, error) {
	u := c.BaseURL + "/auth/callback"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.Client.Get(u)
}

// GetRedirectLocation extracts the Location header from a redirect response.
func GetRedirectLocation(resp *http.Response) (*url.URL, error) {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return nil, fmt.Errorf("no Location header (status %d)", resp.StatusCode)
	}
	return url.Parse(loc)
}
