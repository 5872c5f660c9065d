// Package chapter holds the named start points within a video.
package chapter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

type Chapter struct {
	ID          uuid.UUID `json:"id"`
	VideoID     uuid.UUID `json:"videoId"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartTime   int       `json:"startTime"`
	SortOrder   int       `json:"sortOrder"`
	Active      bool      `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewChapter is the validated input for creating a chapter. StartTime is in
// seconds from the start of the video.
type NewChapter struct {
	VideoID     uuid.UUID `json:"videoId" validate:"required"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description *string   `json:"description" validate:"omitempty,max=10000"`
	StartTime   int       `json:"startTime" validate:"min=0"`
	SortOrder   *int      `json:"sortOrder" validate:"omitempty,min=0"`
}

// Patch changes the non-nil fields of a chapter.
type Patch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	StartTime   *int    `json:"startTime" validate:"omitempty,min=0"`
	SortOrder   *int    `json:"sortOrder" validate:"omitempty,min=0"`
}

// Store persists chapters. Lookups only see active chapters, and lists are
// ordered by sort order, then start time, then creation.
type Store interface {
	Create(ctx context.Context, in NewChapter) (*Chapter, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Chapter, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*Chapter, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Chapter, error)
	ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*Chapter, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	chapters map[uuid.UUID]*Chapter
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chapters: map[uuid.UUID]*Chapter{}, now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, in NewChapter) (*Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := &Chapter{
		ID:          uuid.New(),
		VideoID:     in.VideoID,
		Title:       in.Title,
		Description: in.Description,
		StartTime:   in.StartTime,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.SortOrder != nil {
		c.SortOrder = *in.SortOrder
	}
	s.chapters[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chapters[id]
	if !ok || !c.Active {
		return nil, apperr.NotFound("chapter.find", "chapter %s not found", id)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, p Patch) (*Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chapters[id]
	if !ok || !c.Active {
		return nil, apperr.NotFound("chapter.update", "chapter %s not found", id)
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.StartTime != nil {
		c.StartTime = *p.StartTime
	}
	if p.SortOrder != nil {
		c.SortOrder = *p.SortOrder
	}
	c.UpdatedAt = s.now()
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chapters[id]
	if !ok || !c.Active {
		return apperr.NotFound("chapter.delete", "chapter %s not found", id)
	}
	c.Active = false
	c.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Chapter, error) {
	return s.collect(func(*Chapter) bool { return true }), nil
}

func (s *MemoryStore) ListByVideo(_ context.Context, videoID uuid.UUID) ([]*Chapter, error) {
	return s.collect(func(c *Chapter) bool { return c.VideoID == videoID }), nil
}

func (s *MemoryStore) collect(keep func(*Chapter) bool) []*Chapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Chapter{}
	for _, c := range s.chapters {
		if c.Active && keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortChapters(out)
	return out
}

func sortChapters(cs []*Chapter) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
