package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/chapter"
)

// ChapterStore implements chapter.Store on Postgres.
type ChapterStore struct {
	q *Queries
}

var _ chapter.Store = (*ChapterStore)(nil)

func NewChapterStore(dbtx DBTX) *ChapterStore {
	return &ChapterStore{q: New(dbtx)}
}

func toChapter(c *VideoChapter) *chapter.Chapter {
	return &chapter.Chapter{
		ID:          FromUUID(c.ID),
		VideoID:     FromUUID(c.VideoID),
		Title:       c.Title,
		Description: NilTextPtr(c.Description),
		StartTime:   int(c.StartTime),
		SortOrder:   int(c.SortOrder),
		Active:      c.Active,
		CreatedAt:   c.CreatedAt.Time,
		UpdatedAt:   c.UpdatedAt.Time,
	}
}

func toChapters(rows []*VideoChapter) []*chapter.Chapter {
	out := make([]*chapter.Chapter, len(rows))
	for i, r := range rows {
		out[i] = toChapter(r)
	}
	return out
}

func (s *ChapterStore) Create(ctx context.Context, in chapter.NewChapter) (*chapter.Chapter, error) {
	sortOrder := 0
	if in.SortOrder != nil {
		sortOrder = *in.SortOrder
	}
	row, err := s.q.InsertVideoChapter(ctx, InsertVideoChapterParams{
		ID:          UUID(uuid.New()),
		VideoID:     UUID(in.VideoID),
		Title:       in.Title,
		Description: Text(in.Description),
		StartTime:   int32(in.StartTime),
		SortOrder:   int32(sortOrder),
	})
	if IsForeignKeyViolation(err) {
		return nil, apperr.NotFound("chapter.create", "video %s not found", in.VideoID)
	}
	if err != nil {
		return nil, apperr.IO("chapter.create", err)
	}
	return toChapter(row), nil
}

func (s *ChapterStore) FindByID(ctx context.Context, id uuid.UUID) (*chapter.Chapter, error) {
	row, err := s.q.GetVideoChapter(ctx, UUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("chapter.find", "chapter %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("chapter.find", err)
	}
	return toChapter(row), nil
}

func (s *ChapterStore) Update(ctx context.Context, id uuid.UUID, p chapter.Patch) (*chapter.Chapter, error) {
	row, err := s.q.UpdateVideoChapter(ctx, UpdateVideoChapterParams{
		ID:          UUID(id),
		Title:       Text(p.Title),
		Description: Text(p.Description),
		StartTime:   Int4(p.StartTime),
		SortOrder:   Int4(p.SortOrder),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("chapter.update", "chapter %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("chapter.update", err)
	}
	return toChapter(row), nil
}

func (s *ChapterStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	n, err := s.q.SoftDeleteVideoChapter(ctx, UUID(id))
	if err != nil {
		return apperr.IO("chapter.delete", err)
	}
	if n == 0 {
		return apperr.NotFound("chapter.delete", "chapter %s not found", id)
	}
	return nil
}

func (s *ChapterStore) List(ctx context.Context) ([]*chapter.Chapter, error) {
	rows, err := s.q.ListVideoChapters(ctx)
	if err != nil {
		return nil, apperr.IO("chapter.list", err)
	}
	return toChapters(rows), nil
}

func (s *ChapterStore) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*chapter.Chapter, error) {
	rows, err := s.q.ListVideoChaptersByVideo(ctx, UUID(videoID))
	if err != nil {
		return nil, apperr.IO("chapter.list", err)
	}
	return toChapters(rows), nil
}
