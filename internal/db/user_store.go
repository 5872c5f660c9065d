package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/user"
)

// UserStore implements user.Store on Postgres.
type UserStore struct {
	q *Queries
}

var _ user.Store = (*UserStore)(nil)

func NewUserStore(dbtx DBTX) *UserStore {
	return &UserStore{q: New(dbtx)}
}

func toUser(u *User) *user.User {
	return &user.User{
		ID:        FromUUID(u.ID),
		Username:  u.UserName,
		Email:     u.Email,
		Role:      user.ParseRole(string(u.Role)),
		Password:  u.Password,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt.Time,
	}
}

func (s *UserStore) Create(ctx context.Context, in user.NewUser) (*user.User, error) {
	row, err := s.q.InsertUser(ctx, InsertUserParams{
		ID:       UUID(uuid.New()),
		UserName: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Role:     UserRole(in.Role),
	})
	if IsUniqueViolation(err) {
		return nil, apperr.Conflict("user.create", "username or email already registered")
	}
	if err != nil {
		return nil, apperr.IO("user.create", err)
	}
	return toUser(row), nil
}

func (s *UserStore) FindByLogin(ctx context.Context, login string) (*user.User, error) {
	row, err := s.q.GetUserByLogin(ctx, login)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user.find", "user not found")
	}
	if err != nil {
		return nil, apperr.IO("user.find", err)
	}
	return toUser(row), nil
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	row, err := s.q.GetUserByID(ctx, UUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user.find", "user %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("user.find", err)
	}
	return toUser(row), nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	n, err := s.q.CountUsers(ctx)
	if err != nil {
		return 0, apperr.IO("user.count", err)
	}
	return n, nil
}

func (s *UserStore) List(ctx context.Context) ([]*user.User, error) {
	rows, err := s.q.ListUsers(ctx)
	if err != nil {
		return nil, apperr.IO("user.list", err)
	}
	out := make([]*user.User, len(rows))
	for i, r := range rows {
		out[i] = toUser(r)
	}
	return out, nil
}

func (s *UserStore) SetRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error) {
	row, err := s.q.SetUserRole(ctx, UUID(id), UserRole(role))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user.role", "user %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("user.role", err)
	}
	return toUser(row), nil
}

func (s *UserStore) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*user.User, error) {
	row, err := s.q.SetUserEnabled(ctx, UUID(id), enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user.enable", "user %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("user.enable", err)
	}
	return toUser(row), nil
}
