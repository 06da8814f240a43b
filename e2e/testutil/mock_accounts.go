package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockAccountsServer is a mock accounts collaborator. Status knobs control
// how each endpoint answers; payloads are recorded for assertions.
type MockAccountsServer struct {
	Server *httptest.Server

	mu sync.RWMutex

	// Response knobs. Zero values mean success.
	TutorStatus        int  // default 201
	StudentStatus      int  // default 200
	ProfileStatus      int  // default 200
	CompletenessStatus int  // default 200
	Complete           bool // completeness answer

	tutorRequests   []map[string]any
	studentRequests []map[string]any
	profileRequests []map[string]any
}

// NewMockAccountsServer creates a new mock accounts service.
func NewMockAccountsServer() *MockAccountsServer {
	m := &MockAccountsServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tutors", m.handleTutors)
	mux.HandleFunc("/api/student-accounts", m.handleStudentAccounts)
	mux.HandleFunc("/api/tutor-profiles", m.handleTutorProfiles)
	mux.HandleFunc("/api/tutor-profiles/completeness", m.handleCompleteness)

	m.Server = httptest.NewServer(mux)
	return m
}

// Close shuts down the mock server.
func (m *MockAccountsServer) Close() {
	m.Server.Close()
}

// URL returns the base URL of the mock server.
func (m *MockAccountsServer) URL() string {
	return m.Server.URL
}

// TutorRequests returns the recorded tutor creation payloads.
func (m *MockAccountsServer) TutorRequests() []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]map[string]any(nil), m.tutorRequests...)
}

// StudentRequests returns the recorded student account payloads.
func (m *MockAccountsServer) StudentRequests() []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]map[string]any(nil), m.studentRequests...)
}

// ProfileRequests returns the recorded profile upsert payloads.
func (m *MockAccountsServer) ProfileRequests() []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]map[string]any(nil), m.profileRequests...)
}

func (m *MockAccountsServer) handleTutors(w http.ResponseWriter, r *http.Request) {
	payload := decodePayload(r)

	m.mu.Lock()
	m.tutorRequests = append(m.tutorRequests, payload)
	status := m.TutorStatus
	m.mu.Unlock()

	if status == 0 {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	if status == http.StatusCreated {
		userID, _ := payload["userId"].(string)
		json.NewEncoder(w).Encode(map[string]any{"tutor": map[string]string{"id": userID}})
	}
}

func (m *MockAccountsServer) handleStudentAccounts(w http.ResponseWriter, r *http.Request) {
	payload := decodePayload(r)

	m.mu.Lock()
	m.studentRequests = append(m.studentRequests, payload)
	status := m.StudentStatus
	m.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (m *MockAccountsServer) handleTutorProfiles(w http.ResponseWriter, r *http.Request) {
	payload := decodePayload(r)

	m.mu.Lock()
	m.profileRequests = append(m.profileRequests, payload)
	status := m.ProfileStatus
	m.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (m *MockAccountsServer) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	status := m.CompletenessStatus
	complete := m.Complete
	m.mu.RUnlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if status == http.StatusOK {
		json.NewEncoder(w).Encode(map[string]bool{"isComplete": complete})
	}
}

func decodePayload(r *http.Request) map[string]any {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	return payload
}
