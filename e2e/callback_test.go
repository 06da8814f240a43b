// Package e2e exercises the login-callback service end to end against a mock
// identity provider and a mock accounts collaborator.
package e2e

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/auth-callback/e2e/testutil"
)

func newServer(t *testing.T) *testutil.TestServer {
	t.Helper()
	ts, err := testutil.NewTestServer()
	require.NoError(t, err, "failed to start test server")
	t.Cleanup(ts.Close)
	return ts
}

func callback(t *testing.T, ts *testutil.TestServer, params url.Values) *url.URL {
	t.Helper()
	client := testutil.NewTestClient(ts.URL)

	resp, err := client.Callback(params)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := testutil.GetRedirectLocation(resp)
	require.NoError(t, err)
	return loc
}

func TestHealth(t *testing.T) {
	ts := newServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCallbackWithoutParams(t *testing.T) {
	ts := newServer(t)

	loc := callback(t, ts, nil)
	assert.Equal(t, "/sign-in", loc.Path)
	assert.Contains(t, loc.Query().Get("error"), "No verification code found")
	assert.Equal(t, 0, ts.MockProvider.ExchangeCalls())
	assert.Equal(t, 0, ts.MockProvider.VerifyCalls())
}

func TestCallbackUnknownVerificationType(t *testing.T) {
	ts := newServer(t)

	loc := callback(t, ts, url.Values{"token": {"hash123"}, "type": {"unknown_type"}})
	assert.Equal(t, "/sign-in", loc.Path)
	assert.Equal(t, "Unsupported verification type.", loc.Query().Get("error"))
	assert.Equal(t, 0, ts.MockProvider.VerifyCalls(), "unsupported type must fail before the network call")
}

func TestCodeFlowExistingTutor(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("auth_code_12345", &testutil.MockUser{
		ID:    "tutor-1",
		Email: "taylor@example.com",
	})
	ts.MockAccounts.TutorStatus = http.StatusConflict
	ts.MockAccounts.Complete = true

	loc := callback(t, ts, url.Values{"code": {"auth_code_12345"}})
	assert.Equal(t, ts.URL+"/dashboard", loc.String())

	tutorReqs := ts.MockAccounts.TutorRequests()
	require.Len(t, tutorReqs, 1)
	assert.Equal(t, "tutor-1", tutorReqs[0]["userId"])
	assert.Equal(t, "taylor@example.com", tutorReqs[0]["email"])
	assert.Empty(t, ts.MockAccounts.ProfileRequests(), "409 must not trigger placeholder creation")
}

func TestCodeFlowNewTutorAlwaysOnboards(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("fresh-code", &testutil.MockUser{
		ID:    "tutor-2",
		Email: "newtutor@example.com",
	})
	// Even a completeness check that would answer true is irrelevant for a
	// tutor created in this request.
	ts.MockAccounts.Complete = true

	loc := callback(t, ts, url.Values{"code": {"fresh-code"}, "next": {"/somewhere"}})
	assert.Equal(t, ts.URL+"/tutor-onboarding", loc.String())

	profiles := ts.MockAccounts.ProfileRequests()
	require.Len(t, profiles, 1)
	assert.Equal(t, "tutor-2", profiles[0]["tutorId"])
	assert.Equal(t, "newtutor", profiles[0]["displayName"])
	assert.Contains(t, profiles[0]["profileImage"], "seed=newtutor")
}

func TestPKCESignupStudent(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("pkce_abc", &testutil.MockUser{
		ID:    "student-1",
		Email: "sam@example.com",
		Metadata: map[string]any{
			"role":      "student",
			"full_name": "Sam Student",
		},
	})

	loc := callback(t, ts, url.Values{
		"token": {"pkce_abc"},
		"type":  {"signup"},
		"next":  {"/student/dashboard"},
	})
	assert.Equal(t, ts.URL+"/student/dashboard", loc.String())

	assert.Equal(t, 1, ts.MockProvider.ExchangeCalls(), "pkce token goes through the code exchange")
	assert.Equal(t, 0, ts.MockProvider.VerifyCalls())

	students := ts.MockAccounts.StudentRequests()
	require.Len(t, students, 1)
	assert.Equal(t, "student", students[0]["role"])
	assert.Nil(t, students[0]["studentId"])
	assert.Equal(t, "Sam Student", students[0]["fullName"])
}

func TestParentMagicLink(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterOTP("hash123", "magiclink", &testutil.MockUser{
		ID:    "parent-1",
		Email: "pat@example.com",
		Metadata: map[string]any{
			"role":       "parent",
			"student_id": "child-123",
		},
	})

	loc := callback(t, ts, url.Values{"token": {"hash123"}, "type": {"magiclink"}})
	assert.Equal(t, ts.URL+"/dashboard", loc.String(), "parents land on the student destination, never onboarding")

	students := ts.MockAccounts.StudentRequests()
	require.Len(t, students, 1)
	assert.Equal(t, "parent", students[0]["role"])
	assert.Equal(t, "child-123", students[0]["studentId"])
	assert.Empty(t, ts.MockAccounts.TutorRequests())
}

func TestExpiredCode(t *testing.T) {
	ts := newServer(t)

	loc := callback(t, ts, url.Values{
		"code":  {"never-registered"},
		"email": {"user@example.com"},
	})
	assert.Equal(t, "/sign-in", loc.Path)
	assert.Equal(t, "Code has expired or is invalid", loc.Query().Get("error"))
	assert.Equal(t, "user@example.com", loc.Query().Get("email"))

	assert.Empty(t, ts.MockAccounts.TutorRequests(), "exchange failure stops all provisioning")
	assert.Empty(t, ts.MockAccounts.StudentRequests())
}

func TestStudentProvisioningOutageKeepsRedirect(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("pkce_xyz", &testutil.MockUser{
		ID:       "student-2",
		Email:    "sky@example.com",
		Metadata: map[string]any{"role": "student"},
	})
	ts.MockAccounts.StudentStatus = http.StatusInternalServerError

	loc := callback(t, ts, url.Values{
		"token": {"pkce_xyz"},
		"type":  {"signup"},
		"next":  {"/student/dashboard"},
	})
	assert.Equal(t, ts.URL+"/student/dashboard", loc.String(), "provisioning failure never blocks login")
}

func TestExistingTutorIncompleteProfile(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("code-1", &testutil.MockUser{ID: "tutor-3", Email: "t3@example.com"})
	ts.MockAccounts.TutorStatus = http.StatusConflict
	ts.MockAccounts.Complete = false

	loc := callback(t, ts, url.Values{"code": {"code-1"}, "next": {"/tutor/requests"}})
	assert.Equal(t, ts.URL+"/tutor-onboarding", loc.String(), "incomplete tutors onboard regardless of next")
}

func TestCompletenessOutageMeansOnboarding(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("code-2", &testutil.MockUser{ID: "tutor-4", Email: "t4@example.com"})
	ts.MockAccounts.TutorStatus = http.StatusConflict
	ts.MockAccounts.Complete = true
	ts.MockAccounts.CompletenessStatus = http.StatusServiceUnavailable

	loc := callback(t, ts, url.Values{"code": {"code-2"}})
	assert.Equal(t, ts.URL+"/tutor-onboarding", loc.String(), "check failure assumes incomplete")
}

func TestUserlessExchange(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterUserlessCode("ghost-code")

	loc := callback(t, ts, url.Values{"code": {"ghost-code"}, "next": {"/profile"}})
	assert.Equal(t, ts.URL+"/profile", loc.String())

	assert.Empty(t, ts.MockAccounts.TutorRequests(), "no identity means no provisioning")
	assert.Empty(t, ts.MockAccounts.StudentRequests())
}

func TestForeignNextIgnored(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("pkce_next", &testutil.MockUser{
		ID:       "student-3",
		Email:    "nia@example.com",
		Metadata: map[string]any{"role": "student"},
	})

	loc := callback(t, ts, url.Values{
		"token": {"pkce_next"},
		"type":  {"signup"},
		"next":  {"https://evil.example.com/phish"},
	})
	assert.Equal(t, ts.URL+"/dashboard", loc.String())
}

func TestSessionCookieSetOnSuccess(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("cookie-code", &testutil.MockUser{
		ID:       "student-4",
		Email:    "cam@example.com",
		Metadata: map[string]any{"role": "student"},
	})

	client := testutil.NewTestClient(ts.URL)
	resp, err := client.Callback(url.Values{"code": {"cookie-code"}})
	require.NoError(t, err)
	resp.Body.Close()

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "tutorlane-session" {
			found = true
		}
	}
	assert.True(t, found, "session cookie must ride on the redirect response")
}

func TestRepeatCallbackIsDeterministic(t *testing.T) {
	ts := newServer(t)
	ts.MockProvider.RegisterCode("repeat-code", &testutil.MockUser{
		ID:       "student-5",
		Email:    "dee@example.com",
		Metadata: map[string]any{"role": "student"},
	})

	params := url.Values{"code": {"repeat-code"}, "next": {"/student/dashboard"}}
	first := callback(t, ts, params)
	second := callback(t, ts, params)
	assert.Equal(t, first.String(), second.String())
}
