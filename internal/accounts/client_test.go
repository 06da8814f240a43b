package accounts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "svc-key"})
	require.NoError(t, err)
	return client
}

func TestCreateTutor(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tutors", r.URL.Path)
		assert.Equal(t, "Bearer svc-key", r.Header.Get("Authorization"))

		var req TutorRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req.UserID)
		assert.Equal(t, "tutor@example.com", req.Email)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]Tutor{"tutor": {ID: "t1"}})
	}))

	tutor, err := client.CreateTutor(context.Background(), &TutorRequest{UserID: "u1", Email: "tutor@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "t1", tutor.ID)
}

func TestCreateTutorConflict(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	_, err := client.CreateTutor(context.Background(), &TutorRequest{UserID: "u1", Email: "t@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateStudentAccount(t *testing.T) {
	grade := "8"
	studentID := "child-123"

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/student-accounts", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "parent", req["role"])
		assert.Equal(t, "child-123", req["studentId"])
		assert.Nil(t, req["bio"])

		w.WriteHeader(http.StatusOK)
	}))

	err := client.CreateStudentAccount(context.Background(), &StudentAccountRequest{
		UserID:            "u2",
		Email:             "parent@example.com",
		FullName:          "Pat Parent",
		PreferredSubjects: []string{},
		GradeLevel:        &grade,
		Role:              "parent",
		StudentID:         &studentID,
	})
	require.NoError(t, err)
}

func TestCreateStudentAccountServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	err := client.CreateStudentAccount(context.Background(), &StudentAccountRequest{UserID: "u2"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestUpsertTutorProfile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tutor-profiles", r.URL.Path)

		var req TutorProfileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "t1", req.TutorID)
		assert.NotEmpty(t, req.DisplayName)

		w.WriteHeader(http.StatusOK)
	}))

	err := client.UpsertTutorProfile(context.Background(), &TutorProfileRequest{
		TutorID:     "t1",
		DisplayName: "New Tutor",
		Subjects:    []string{"General Tutoring"},
	})
	require.NoError(t, err)
}

func TestIsProfileComplete(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tutor-profiles/completeness", r.URL.Path)
		assert.Equal(t, "t1", r.URL.Query().Get("tutorId"))

		json.NewEncoder(w).Encode(map[string]bool{"isComplete": true})
	}))

	complete, err := client.IsProfileComplete(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestIsProfileCompleteServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))

	_, err := client.IsProfileComplete(context.Background(), "t1")
	assert.Error(t, err)
}
