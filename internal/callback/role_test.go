package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tutorlane/auth-callback/internal/identity"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name string
		meta identity.Metadata
		want Role
	}{
		{name: "student", meta: identity.Metadata{Role: "student"}, want: RoleStudent},
		{name: "parent", meta: identity.Metadata{Role: "parent"}, want: RoleParent},
		{name: "missing role defaults to tutor", meta: identity.Metadata{}, want: RoleTutor},
		{name: "unknown role defaults to tutor", meta: identity.Metadata{Role: "admin"}, want: RoleTutor},
		{name: "explicit tutor", meta: identity.Metadata{Role: "tutor"}, want: RoleTutor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &identity.Identity{ID: "u1", Email: "u@example.com", Metadata: tt.meta}
			assert.Equal(t, tt.want, ResolveRole(id))
		})
	}
}

func TestResolveRoleNilIdentity(t *testing.T) {
	assert.Equal(t, RoleTutor, ResolveRole(nil))
}

func TestIsStudentFlow(t *testing.T) {
	assert.True(t, RoleStudent.IsStudentFlow())
	assert.True(t, RoleParent.IsStudentFlow())
	assert.False(t, RoleTutor.IsStudentFlow())
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "tutor", RoleTutor.String())
	assert.Equal(t, "student", RoleStudent.String())
	assert.Equal(t, "parent", RoleParent.String())
}
