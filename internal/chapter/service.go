package chapter

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"thirdcoast.systems/lessonstream/internal/apperr"
)

// Videos resolves a video's duration in seconds. Unknown or deleted videos
// return an apperr.ErrNotFound error.
type Videos interface {
	Duration(ctx context.Context, videoID uuid.UUID) (int, error)
}

// Service validates chapter changes against the video they belong to.
type Service struct {
	store    Store
	videos   Videos
	validate *validator.Validate
}

func NewService(store Store, videos Videos) *Service {
	return &Service{store: store, videos: videos, validate: validator.New()}
}

func (s *Service) List(ctx context.Context) ([]*Chapter, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Chapter, error) {
	return s.store.FindByID(ctx, id)
}

// ListByVideo returns the chapters of an existing video.
func (s *Service) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*Chapter, error) {
	if _, err := s.videos.Duration(ctx, videoID); err != nil {
		return nil, err
	}
	return s.store.ListByVideo(ctx, videoID)
}

func (s *Service) Create(ctx context.Context, in NewChapter) (*Chapter, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "chapter.create", err)
	}
	if err := s.checkStart(ctx, "chapter.create", in.VideoID, in.StartTime); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*Chapter, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "chapter.update", err)
	}
	if p.StartTime != nil {
		c, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.checkStart(ctx, "chapter.update", c.VideoID, *p.StartTime); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.SoftDelete(ctx, id)
}

// checkStart rejects a start past the end of the video. A video whose
// duration could not be probed accepts any start.
func (s *Service) checkStart(ctx context.Context, op string, videoID uuid.UUID, start int) error {
	duration, err := s.videos.Duration(ctx, videoID)
	if err != nil {
		return err
	}
	if duration > 0 && start > duration {
		return apperr.Validation(op, "start time %ds is past the end of the video (%ds)", start, duration)
	}
	return nil
}
