package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/progress"
)

// ProgressStore implements progress.Store on Postgres. Completion is merged
// in SQL so concurrent writers on other replicas cannot regress it.
type ProgressStore struct {
	q *Queries
}

var _ progress.Store = (*ProgressStore)(nil)

func NewProgressStore(dbtx DBTX) *ProgressStore {
	return &ProgressStore{q: New(dbtx)}
}

func toRecord(v *VideoProgress) *progress.Record {
	return &progress.Record{
		ID:           FromUUID(v.ID),
		UserID:       FromUUID(v.UserID),
		VideoID:      FromUUID(v.VideoID),
		Progress:     v.Progress,
		LastPosition: int(v.LastPosition),
		Completed:    v.Completed,
		CompletedAt:  NilTimePtr(v.CompletedAt),
		CreatedAt:    v.CreatedAt.Time,
		UpdatedAt:    v.UpdatedAt.Time,
	}
}

func toRecords(rows []*VideoProgress) []*progress.Record {
	out := make([]*progress.Record, len(rows))
	for i, r := range rows {
		out[i] = toRecord(r)
	}
	return out
}

func (s *ProgressStore) FindByKey(ctx context.Context, userID, videoID uuid.UUID) (*progress.Record, error) {
	row, err := s.q.GetVideoProgress(ctx, UUID(userID), UUID(videoID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("progress.find", "no progress for video %s", videoID)
	}
	if err != nil {
		return nil, apperr.IO("progress.find", err)
	}
	return toRecord(row), nil
}

func (s *ProgressStore) Create(ctx context.Context, userID, videoID uuid.UUID, f progress.Fields) (*progress.Record, error) {
	row, err := s.q.InsertVideoProgress(ctx, InsertVideoProgressParams{
		ID:           UUID(uuid.New()),
		UserID:       UUID(userID),
		VideoID:      UUID(videoID),
		Progress:     f.Progress,
		LastPosition: int32(f.LastPosition),
		Completed:    f.Completed,
		CompletedAt:  Timestamptz(f.CompletedAt),
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, apperr.Conflict("progress.create", "progress for video %s already exists", videoID)
	case IsForeignKeyViolation(err):
		return nil, apperr.NotFound("progress.create", "video %s or user %s not found", videoID, userID)
	case err != nil:
		return nil, apperr.IO("progress.create", err)
	}
	return toRecord(row), nil
}

func (s *ProgressStore) Update(ctx context.Context, id uuid.UUID, p progress.Patch) (*progress.Record, error) {
	row, err := s.q.UpdateVideoProgress(ctx, UpdateVideoProgressParams{
		ID:                  UUID(id),
		Progress:            Float8(p.Progress),
		LastPosition:        Int4(p.LastPosition),
		Completed:           Bool(p.Completed),
		CompletedAt:         Timestamptz(p.CompletedAt),
		OverrideCompletedAt: p.OverrideCompletedAt,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("progress.update", "progress %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("progress.update", err)
	}
	return toRecord(row), nil
}

func (s *ProgressStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*progress.Record, error) {
	rows, err := s.q.ListVideoProgressByUser(ctx, UUID(userID))
	if err != nil {
		return nil, apperr.IO("progress.list", err)
	}
	return toRecords(rows), nil
}

func (s *ProgressStore) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*progress.Record, error) {
	rows, err := s.q.ListVideoProgressByVideo(ctx, UUID(videoID))
	if err != nil {
		return nil, apperr.IO("progress.list", err)
	}
	return toRecords(rows), nil
}
