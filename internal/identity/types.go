// Package identity is the HTTP client for the identity provider that issues
// magic links. It exchanges codes and OTP tokens for sessions and reads the
// authenticated user.
package identity

// Metadata is the user metadata the provider stores at signup time. All
// fields are optional; the zero value means "not supplied".
type Metadata struct {
	Role              string   `json:"role,omitempty"`
	FullName          string   `json:"full_name,omitempty"`
	PreferredSubjects []string `json:"preferred_subjects,omitempty"`
	GradeLevel        string   `json:"grade_level,omitempty"`
	Bio               string   `json:"bio,omitempty"`
	StudentID         string   `json:"student_id,omitempty"`
}

// Identity is the authenticated user as reported by the provider. It is
// read-only; the provider owns the record and we reference it by id.
type Identity struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Metadata Metadata `json:"user_metadata"`
}

// Session holds the tokens returned by a successful exchange.
type Session struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	User         *Identity `json:"user,omitempty"`
}
