package video

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

// MemoryStore is an in-process AssetStore. Returned assets are copies.
type MemoryStore struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*Asset
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assets: map[uuid.UUID]*Asset{}, now: time.Now}
}

func clone(a *Asset) *Asset {
	cp := *a
	if a.Description != nil {
		d := *a.Description
		cp.Description = &d
	}
	if a.ThumbnailPath != nil {
		p := *a.ThumbnailPath
		cp.ThumbnailPath = &p
	}
	if a.ManifestPath != nil {
		p := *a.ManifestPath
		cp.ManifestPath = &p
	}
	return &cp
}

func (s *MemoryStore) Create(_ context.Context, in NewAsset) (*Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a := &Asset{
		ID:               uuid.New(),
		CourseID:         in.CourseID,
		Title:            in.Title,
		Description:      in.Description,
		Duration:         in.Duration,
		OriginalFilename: in.OriginalFilename,
		FilePath:         in.FilePath,
		ThumbnailPath:    in.ThumbnailPath,
		Status:           StatusProcessing,
		SortOrder:        in.SortOrder,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.assets[a.ID] = clone(a)
	return a, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[id]
	if !ok || !a.Active {
		return nil, apperr.NotFound("video.find", "video %s not found", id)
	}
	return clone(a), nil
}

func (s *MemoryStore) UpdateDetails(_ context.Context, id uuid.UUID, patch DetailsPatch) (*Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[id]
	if !ok || !a.Active {
		return nil, apperr.NotFound("video.update", "video %s not found", id)
	}
	if patch.Title != nil {
		a.Title = *patch.Title
	}
	if patch.Description != nil {
		d := *patch.Description
		a.Description = &d
	}
	if patch.SortOrder != nil {
		a.SortOrder = *patch.SortOrder
	}
	a.UpdatedAt = s.now()
	return clone(a), nil
}

func (s *MemoryStore) Transition(_ context.Context, id uuid.UUID, from, to Status, manifestPath *string) (*Asset, error) {
	if !from.CanTransition(to) {
		return nil, &TransitionError{AssetID: id.String(), From: from, To: to}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[id]
	if !ok {
		return nil, apperr.NotFound("video.transition", "video %s not found", id)
	}
	if a.Status != from {
		return nil, apperr.Conflict("video.transition", "video %s is %s, not %s", id, a.Status, from)
	}
	a.Status = to
	if manifestPath != nil {
		p := *manifestPath
		a.ManifestPath = &p
	}
	a.UpdatedAt = s.now()
	return clone(a), nil
}

func (s *MemoryStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[id]
	if !ok || !a.Active {
		return apperr.NotFound("video.delete", "video %s not found", id)
	}
	a.Active = false
	a.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]*Asset, error) {
	return s.list(func(a *Asset) bool { return a.Active }), nil
}

func (s *MemoryStore) ListByCourse(_ context.Context, courseID uuid.UUID) ([]*Asset, error) {
	return s.list(func(a *Asset) bool { return a.Active && a.CourseID == courseID }), nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, status Status) ([]*Asset, error) {
	return s.list(func(a *Asset) bool { return a.Status == status }), nil
}

func (s *MemoryStore) list(keep func(*Asset) bool) []*Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Asset{}
	for _, a := range s.assets {
		if keep(a) {
			out = append(out, clone(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
