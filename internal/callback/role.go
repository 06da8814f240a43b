package callback

import "github.com/tutorlane/auth-callback/internal/identity"

// Role is the kind of account behind an authenticated identity.
type Role int

const (
	// RoleTutor is the default when metadata carries no recognized role.
	RoleTutor Role = iota

	// RoleStudent is a student account.
	RoleStudent

	// RoleParent is a parent account. Parents are provisioned through the
	// same call as students, with their own role tag and a linkage to an
	// existing student id.
	RoleParent
)

// String returns the role tag used on the wire and in logs.
func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleParent:
		return "parent"
	default:
		return "tutor"
	}
}

// IsStudentFlow reports whether the role follows the student provisioning
// and redirect path (students and parents) rather than the tutor path.
func (r Role) IsStudentFlow() bool {
	return r == RoleStudent || r == RoleParent
}

// ResolveRole maps identity metadata to a role. Anything other than an
// explicit "student" or "parent" tag, including missing metadata, defaults
// to tutor. Pure function.
func ResolveRole(id *identity.Identity) Role {
	if id == nil {
		return RoleTutor
	}
	switch id.Metadata.Role {
	case "student":
		return RoleStudent
	case "parent":
		return RoleParent
	default:
		return RoleTutor
	}
}
