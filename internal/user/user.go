// Package user manages accounts and their roles.
package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/pkg/utils/passwords"
)

// Role gates what an account may do. Instructors and admins manage content.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// ParseRole maps unknown values to RoleStudent.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleInstructor, RoleAdmin:
		return r
	default:
		return RoleStudent
	}
}

// CanManageContent reports whether r may upload, edit or delete videos and
// courses.
func (r Role) CanManageContent() bool {
	return r == RoleInstructor || r == RoleAdmin
}

type User struct {
	ID        uuid.UUID          `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Role      Role               `json:"role"`
	Password  passwords.Password `json:"-"`
	Enabled   bool               `json:"enabled"`
	CreatedAt time.Time          `json:"createdAt"`
}

// NewUser is a stored account before it gets an id.
type NewUser struct {
	Username string
	Email    string
	Role     Role
	Password passwords.Password
}

// Store persists accounts. Create returns apperr.ErrConflict when the
// username or email is taken; FindByLogin matches either, case-insensitively.
type Store interface {
	Create(ctx context.Context, in NewUser) (*User, error)
	FindByLogin(ctx context.Context, login string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*User, error)
	SetRole(ctx context.Context, id uuid.UUID, role Role) (*User, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*User, error)
}

// Registration is a sign-up request.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanumunicode"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// Credentials is a login request. Login is a username or email.
type Credentials struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Service registers and authenticates accounts.
type Service struct {
	store    Store
	validate *validator.Validate
	// serializes the first-user check so exactly one account becomes admin,
	// and admin changes so the last admin cannot be removed
	registerMu sync.Mutex
}

func NewService(store Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

// Register creates an account. The first account becomes an admin; every
// later one starts as a student.
func (s *Service) Register(ctx context.Context, in Registration) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "user.register", err)
	}
	hash, err := passwords.NewPassword(passwords.PasswordInput{Password: in.Password})
	if err != nil {
		return nil, apperr.New(apperr.ErrValidation, "user.register", err)
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := RoleStudent
	if n == 0 {
		role = RoleAdmin
	}
	return s.store.Create(ctx, NewUser{Username: in.Username, Email: in.Email, Role: role, Password: hash})
}

// Authenticate checks credentials. Unknown logins, wrong passwords and
// disabled accounts all fail with the same apperr.ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, in Credentials) (*User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "user.login", err)
	}
	u, err := s.store.FindByLogin(ctx, strings.TrimSpace(in.Login))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.New(apperr.ErrUnauthorized, "user.login", nil)
	}
	if err != nil {
		return nil, err
	}
	if !u.Enabled || !u.Password.Matches(in.Password) {
		return nil, apperr.New(apperr.ErrUnauthorized, "user.login", nil)
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.store.List(ctx)
}

// SetRole changes target's role on behalf of actor. Admins cannot demote
// themselves, and the last enabled admin cannot be demoted.
func (s *Service) SetRole(ctx context.Context, actor, target uuid.UUID, role Role) (*User, error) {
	if ParseRole(string(role)) != role {
		return nil, apperr.Validation("user.role", "unknown role %q", role)
	}
	if actor == target && role != RoleAdmin {
		return nil, apperr.Conflict("user.role", "you cannot demote yourself")
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	u, err := s.store.FindByID(ctx, target)
	if err != nil {
		return nil, err
	}
	if u.Role == RoleAdmin && role != RoleAdmin {
		if err := s.keepOneAdmin(ctx, "user.role"); err != nil {
			return nil, err
		}
	}
	return s.store.SetRole(ctx, target, role)
}

// SetEnabled enables or disables target. Disabled accounts cannot log in and
// their sessions are dropped on the next request.
func (s *Service) SetEnabled(ctx context.Context, actor, target uuid.UUID, enabled bool) (*User, error) {
	if actor == target && !enabled {
		return nil, apperr.Conflict("user.enable", "you cannot disable yourself")
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	u, err := s.store.FindByID(ctx, target)
	if err != nil {
		return nil, err
	}
	if u.Role == RoleAdmin && u.Enabled && !enabled {
		if err := s.keepOneAdmin(ctx, "user.enable"); err != nil {
			return nil, err
		}
	}
	return s.store.SetEnabled(ctx, target, enabled)
}

func (s *Service) keepOneAdmin(ctx context.Context, op string) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	admins := 0
	for _, u := range all {
		if u.Role == RoleAdmin && u.Enabled {
			admins++
		}
	}
	if admins <= 1 {
		return apperr.Conflict(op, "at least one enabled admin is required")
	}
	return nil
}
