package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

type recordKey struct{ user, video uuid.UUID }

// MemoryStore is an in-process Store with the same merge rules as the
// Postgres store.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Record
	byKey map[recordKey]uuid.UUID
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  map[uuid.UUID]*Record{},
		byKey: map[recordKey]uuid.UUID{},
		now:   time.Now,
	}
}

func cloneRecord(r *Record) *Record {
	cp := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func (s *MemoryStore) FindByKey(_ context.Context, userID, videoID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[recordKey{userID, videoID}]
	if !ok {
		return nil, apperr.NotFound("progress.find", "no progress for video %s", videoID)
	}
	return cloneRecord(s.byID[id]), nil
}

func (s *MemoryStore) Create(_ context.Context, userID, videoID uuid.UUID, f Fields) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{userID, videoID}
	if _, ok := s.byKey[key]; ok {
		return nil, apperr.Conflict("progress.create", "progress for video %s already exists", videoID)
	}
	now := s.now()
	r := &Record{
		ID:           uuid.New(),
		UserID:       userID,
		VideoID:      videoID,
		Progress:     f.Progress,
		LastPosition: f.LastPosition,
		Completed:    f.Completed,
		CompletedAt:  f.CompletedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if r.Completed && r.CompletedAt == nil {
		r.CompletedAt = &now
	}
	s.byID[r.ID] = r
	s.byKey[key] = r.ID
	return cloneRecord(r), nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, p Patch) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFound("progress.update", "progress %s not found", id)
	}
	if p.Progress != nil {
		r.Progress = *p.Progress
	}
	if p.LastPosition != nil {
		r.LastPosition = *p.LastPosition
	}
	if p.Completed != nil {
		r.Completed = r.Completed || *p.Completed
	}
	if p.CompletedAt != nil && (p.OverrideCompletedAt || r.CompletedAt == nil) {
		t := *p.CompletedAt
		r.CompletedAt = &t
	}
	r.UpdatedAt = s.now()
	return cloneRecord(r), nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*Record, error) {
	return s.list(func(r *Record) bool { return r.UserID == userID }), nil
}

func (s *MemoryStore) ListByVideo(_ context.Context, videoID uuid.UUID) ([]*Record, error) {
	return s.list(func(r *Record) bool { return r.VideoID == videoID }), nil
}

func (s *MemoryStore) list(keep func(*Record) bool) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Record{}
	for _, r := range s.byID {
		if keep(r) {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}
