// Package accounts is the HTTP client for the accounts collaborator service
// that owns tutor, student and parent records.
package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrConflict is returned when the collaborator reports the record already
// exists (HTTP 409). Callers treat it as success: provisioning is idempotent.
var ErrConflict = errors.New("account already exists")

// TutorRequest is the payload for tutor account creation.
type TutorRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Tutor is the record returned by a successful tutor creation.
type Tutor struct {
	ID string `json:"id"`
}

// StudentAccountRequest is the payload for student and parent account
// creation. Parents use the same call with their own role tag and a linkage
// to an existing student id.
type StudentAccountRequest struct {
	UserID            string   `json:"userId"`
	Email             string   `json:"email"`
	FullName          string   `json:"fullName"`
	PreferredSubjects []string `json:"preferredSubjects"`
	GradeLevel        *string  `json:"gradeLevel"`
	Bio               *string  `json:"bio"`
	Role              string   `json:"role"`
	StudentID         *string  `json:"studentId"`
}

// TutorProfileRequest is the payload for the tutor profile upsert.
type TutorProfileRequest struct {
	TutorID      string   `json:"tutorId"`
	DisplayName  string   `json:"displayName"`
	Subjects     []string `json:"subjects"`
	ProfileImage string   `json:"profileImage"`
	Country      string   `json:"country"`
	City         string   `json:"city"`
	Bio          string   `json:"bio"`
	Experience   string   `json:"experience"`
	HourlyRate   int      `json:"hourlyRate"`
	Availability []string `json:"availability"`
	Address      string   `json:"address"`
}

// Config holds the configuration for the accounts client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the accounts collaborator service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new accounts client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("accounts: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// CreateTutor creates a tutor account record. Returns ErrConflict if the
// tutor already exists.
func (c *Client) CreateTutor(ctx context.Context, req *TutorRequest) (*Tutor, error) {
	body, err := c.post(ctx, "/api/tutors", req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Tutor Tutor `json:"tutor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return &resp.Tutor, nil
}

// CreateStudentAccount creates a student or parent account record. Returns
// ErrConflict if the account already exists.
func (c *Client) CreateStudentAccount(ctx context.Context, req *StudentAccountRequest) error {
	_, err := c.post(ctx, "/api/student-accounts", req)
	return err
}

// UpsertTutorProfile creates or updates a tutor profile.
func (c *Client) UpsertTutorProfile(ctx context.Context, req *TutorProfileRequest) error {
	_, err := c.post(ctx, "/api/tutor-profiles", req)
	return err
}

// IsProfileComplete asks the collaborator whether a tutor finished the
// onboarding questionnaire.
func (c *Client) IsProfileComplete(ctx context.Context, tutorID string) (bool, error) {
	u := c.baseURL + "/api/tutor-profiles/completeness?" + url.Values{"tutorId": {tutorID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("completeness endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		IsComplete bool `json:"isComplete"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return false, fmt.Errorf("parsing response: %w", err)
	}

	return result.IsComplete, nil
}

// post sends a JSON payload and returns the response body. 2xx succeeds,
// 409 maps to ErrConflict, anything else is an error.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrConflict
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}
