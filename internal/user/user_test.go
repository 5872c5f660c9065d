package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	first, err := svc.Register(ctx, Registration{Username: "ada", Email: "Ada@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, first.Role)
	assert.Equal(t, "ada@example.com", first.Email)

	second, err := svc.Register(ctx, Registration{Username: "bob", Email: "bob@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, second.Role)

	_, err = svc.Register(ctx, Registration{Username: "ADA", Email: "other@example.com", Password: "correct horse"})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	tests := []struct {
		name string
		in   Registration
	}{
		{"bad email", Registration{Username: "ada", Email: "nope", Password: "correct horse"}},
		{"short password", Registration{Username: "ada", Email: "ada@example.com", Password: "short"}},
		{"short username", Registration{Username: "a", Email: "ada@example.com", Password: "correct horse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			require.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, Credentials{Login: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = svc.Authenticate(ctx, Credentials{Login: "ADA", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, Credentials{Login: "ada", Password: "wrong password"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, Credentials{Login: "nobody", Password: "correct horse"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleInstructor, ParseRole("instructor"))
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleStudent, ParseRole("root"))
	assert.True(t, RoleInstructor.CanManageContent())
	assert.False(t, RoleStudent.CanManageContent())
}

func TestSetRole(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	admin, err := svc.Register(ctx, Registration{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	bob, err := svc.Register(ctx, Registration{Username: "bob", Email: "bob@example.com", Password: "correct horse"})
	require.NoError(t, err)

	got, err := svc.SetRole(ctx, admin.ID, bob.ID, RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, RoleInstructor, got.Role)

	_, err = svc.SetRole(ctx, admin.ID, bob.ID, Role("owner"))
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.SetRole(ctx, admin.ID, admin.ID, RoleStudent)
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.SetRole(ctx, admin.ID, uuid.New(), RoleStudent)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// with a second admin, the first can be demoted by them
	_, err = svc.SetRole(ctx, admin.ID, bob.ID, RoleAdmin)
	require.NoError(t, err)
	got, err = svc.SetRole(ctx, bob.ID, admin.ID, RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, got.Role)
}

func TestSetEnabled(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	admin, err := svc.Register(ctx, Registration{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	bob, err := svc.Register(ctx, Registration{Username: "bob", Email: "bob@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.SetEnabled(ctx, admin.ID, admin.ID, false)
	require.ErrorIs(t, err, apperr.ErrConflict)

	got, err := svc.SetEnabled(ctx, admin.ID, bob.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	_, err = svc.Authenticate(ctx, Credentials{Login: "bob", Password: "correct horse"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// bob is re-enabled and promoted; ada is then the only other admin
	_, err = svc.SetEnabled(ctx, admin.ID, bob.ID, true)
	require.NoError(t, err)
	_, err = svc.SetRole(ctx, admin.ID, bob.ID, RoleAdmin)
	require.NoError(t, err)
	_, err = svc.SetEnabled(ctx, bob.ID, admin.ID, false)
	require.NoError(t, err)
	_, err = svc.SetRole(ctx, admin.ID, bob.ID, RoleStudent)
	require.ErrorIs(t, err, apperr.ErrConflict, "last enabled admin")

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
