// Package provision idempotently ensures a backing account record exists for
// an authenticated identity. Provisioning failures are logged and swallowed:
// they never block a login that already has a session.
package provision

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tutorlane/auth-callback/internal/accounts"
	"github.com/tutorlane/auth-callback/internal/callback"
	"github.com/tutorlane/auth-callback/internal/identity"
)

// Placeholder profile defaults for brand-new tutors. The placeholder makes
// the tutor visible in listings before onboarding fills in real values.
const (
	defaultSubject    = "General Tutoring"
	defaultCountry    = "United States"
	defaultCity       = "Remote"
	defaultBio        = "New tutor on Tutorlane. Profile details coming soon."
	defaultExperience = "Not specified"
	defaultHourlyRate = 25
	avatarBaseURL     = "https://api.dicebear.com/7.x/initials/svg"
)

// AccountsAPI is the slice of the accounts collaborator the provisioner uses.
type AccountsAPI interface {
	CreateTutor(ctx context.Context, req *accounts.TutorRequest) (*accounts.Tutor, error)
	CreateStudentAccount(ctx context.Context, req *accounts.StudentAccountRequest) error
	UpsertTutorProfile(ctx context.Context, req *accounts.TutorProfileRequest) error
	IsProfileComplete(ctx context.Context, tutorID string) (bool, error)
}

// Provisioner ensures account records exist for authenticated identities.
type Provisioner struct {
	api    AccountsAPI
	logger *slog.Logger
}

// NewProvisioner creates a new provisioner.
func NewProvisioner(api AccountsAPI, logger *slog.Logger) *Provisioner {
	return &Provisioner{api: api, logger: logger}
}

// EnsureStudentAccount provisions a student or parent account. Conflicts mean
// the account already exists and count as success; any other failure is
// logged and swallowed.
func (p *Provisioner) EnsureStudentAccount(ctx context.Context, id *identity.Identity, role callback.Role) {
	req := &accounts.StudentAccountRequest{
		UserID:            id.ID,
		Email:             id.Email,
		FullName:          displayName(id, role),
		PreferredSubjects: id.Metadata.PreferredSubjects,
		GradeLevel:        optional(id.Metadata.GradeLevel),
		Bio:               optional(id.Metadata.Bio),
		Role:              role.String(),
		StudentID:         optional(id.Metadata.StudentID),
	}
	if req.PreferredSubjects == nil {
		req.PreferredSubjects = []string{}
	}

	err := p.api.CreateStudentAccount(ctx, req)
	switch {
	case err == nil:
		p.logger.Info("student account provisioned", "user_id", id.ID, "role", role.String())
	case errors.Is(err, accounts.ErrConflict):
		p.logger.Info("student account already exists", "user_id", id.ID, "role", role.String())
	default:
		p.logger.Warn("student account provisioning failed, continuing login",
			"user_id", id.ID, "role", role.String(), "error", err)
	}
}

// EnsureTutorAccount provisions a tutor account and reports whether it was
// created in this request. A fresh tutor also gets a placeholder profile so
// they appear in listings; placeholder failures are swallowed. A conflict
// means the tutor already exists, so the profile is left alone.
func (p *Provisioner) EnsureTutorAccount(ctx context.Context, id *identity.Identity) (isNew bool) {
	_, err := p.api.CreateTutor(ctx, &accounts.TutorRequest{UserID: id.ID, Email: id.Email})
	switch {
	case err == nil:
		p.logger.Info("tutor account provisioned", "user_id", id.ID)
		p.createPlaceholderProfile(ctx, id)
		return true
	case errors.Is(err, accounts.ErrConflict):
		p.logger.Info("tutor account already exists", "user_id", id.ID)
		return false
	default:
		p.logger.Warn("tutor account provisioning failed, continuing login",
			"user_id", id.ID, "error", err)
		return false
	}
}

// TutorProfileComplete asks the collaborator whether the tutor finished
// onboarding. Any failure is treated as incomplete: re-prompting onboarding
// is safer than skipping a required step.
func (p *Provisioner) TutorProfileComplete(ctx context.Context, tutorID string) bool {
	complete, err := p.api.IsProfileComplete(ctx, tutorID)
	if err != nil {
		p.logger.Warn("profile completeness check failed, assuming incomplete",
			"tutor_id", tutorID, "error", err)
		return false
	}
	return complete
}

// createPlaceholderProfile gives a brand-new tutor a minimal default-valued
// profile. Failure never affects the redirect decision.
func (p *Provisioner) createPlaceholderProfile(ctx context.Context, id *identity.Identity) {
	name := displayName(id, callback.RoleTutor)

	err := p.api.UpsertTutorProfile(ctx, &accounts.TutorProfileRequest{
		TutorID:      id.ID,
		DisplayName:  name,
		Subjects:     []string{defaultSubject},
		ProfileImage: AvatarURL(name),
		Country:      defaultCountry,
		City:         defaultCity,
		Bio:          defaultBio,
		Experience:   defaultExperience,
		HourlyRate:   defaultHourlyRate,
		Availability: []string{},
		Address:      "",
	})
	if err != nil {
		p.logger.Warn("placeholder profile creation failed, continuing login",
			"user_id", id.ID, "error", err)
		return
	}
	p.logger.Info("placeholder profile created", "user_id", id.ID, "display_name", name)
}

// AvatarURL returns a deterministic avatar image URL keyed by display name.
func AvatarURL(name string) string {
	return avatarBaseURL + "?seed=" + url.QueryEscape(name)
}

// displayName derives a human-readable name: metadata full name, then the
// email local part, then a role default.
func displayName(id *identity.Identity, role callback.Role) string {
	if name := strings.TrimSpace(id.Metadata.FullName); name != "" {
		return name
	}
	if local := emailLocalPart(id.Email); local != "" {
		return local
	}
	switch role {
	case callback.RoleStudent:
		return "Student"
	case callback.RoleParent:
		return "Parent"
	default:
		return "Tutor"
	}
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return ""
}

// optional maps an empty string to a JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
