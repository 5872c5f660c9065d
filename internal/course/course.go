// Package course holds the course records videos are filed under.
package course

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Active      bool      `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewCourse is the validated input for creating a course.
type NewCourse struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=10000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// Store persists courses. Lookups only see active courses.
type Store interface {
	Create(ctx context.Context, in NewCourse) (*Course, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Course, error)
	List(ctx context.Context) ([]*Course, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	courses map[uuid.UUID]*Course
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{courses: map[uuid.UUID]*Course{}, now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, in NewCourse) (*Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := &Course{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.courses[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok || !c.Active {
		return nil, apperr.NotFound("course.find", "course %s not found", id)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Course, 0, len(s.courses))
	for _, c := range s.courses {
		if c.Active {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.FindByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return true, nil
}
