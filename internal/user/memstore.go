package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[uuid.UUID]*User{}}
}

func (s *MemoryStore) Create(_ context.Context, in NewUser) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, in.Username) || strings.EqualFold(u.Email, in.Email) {
			return nil, apperr.Conflict("user.create", "username or email already registered")
		}
	}
	u := &User{
		ID:        uuid.New(),
		Username:  in.Username,
		Email:     in.Email,
		Role:      in.Role,
		Password:  in.Password,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FindByLogin(_ context.Context, login string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user.find", "user not found")
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user.find", "user %s not found", id)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) List(context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (s *MemoryStore) SetRole(_ context.Context, id uuid.UUID, role Role) (*User, error) {
	return s.modify(id, "user.role", func(u *User) { u.Role = role })
}

func (s *MemoryStore) SetEnabled(_ context.Context, id uuid.UUID, enabled bool) (*User, error) {
	return s.modify(id, "user.enable", func(u *User) { u.Enabled = enabled })
}

func (s *MemoryStore) modify(id uuid.UUID, op string, fn func(*User)) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound(op, "user %s not found", id)
	}
	fn(u)
	cp := *u
	return &cp, nil
}
