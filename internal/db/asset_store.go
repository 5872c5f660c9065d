package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"thirdcoast.systems/lessonstream/internal/apperr"
	"thirdcoast.systems/lessonstream/internal/video"
)

// AssetStore implements video.AssetStore on Postgres.
type AssetStore struct {
	q *Queries
}

var _ video.AssetStore = (*AssetStore)(nil)

func NewAssetStore(dbtx DBTX) *AssetStore {
	return &AssetStore{q: New(dbtx)}
}

func toAsset(v *VideoAsset) *video.Asset {
	return &video.Asset{
		ID:               FromUUID(v.ID),
		CourseID:         FromUUID(v.CourseID),
		Title:            v.Title,
		Description:      NilTextPtr(v.Description),
		Duration:         int(v.Duration),
		OriginalFilename: v.OriginalFilename,
		FilePath:         v.FilePath,
		ThumbnailPath:    NilTextPtr(v.ThumbnailPath),
		ManifestPath:     NilTextPtr(v.ManifestPath),
		Status:           video.Status(v.Status),
		SortOrder:        int(v.SortOrder),
		Active:           v.Active,
		CreatedAt:        v.CreatedAt.Time,
		UpdatedAt:        v.UpdatedAt.Time,
	}
}

func toAssets(rows []*VideoAsset) []*video.Asset {
	out := make([]*video.Asset, len(rows))
	for i, r := range rows {
		out[i] = toAsset(r)
	}
	return out
}

func (s *AssetStore) Create(ctx context.Context, in video.NewAsset) (*video.Asset, error) {
	row, err := s.q.InsertVideoAsset(ctx, InsertVideoAssetParams{
		ID:               UUID(uuid.New()),
		CourseID:         UUID(in.CourseID),
		Title:            in.Title,
		Description:      Text(in.Description),
		Duration:         int32(in.Duration),
		OriginalFilename: in.OriginalFilename,
		FilePath:         in.FilePath,
		ThumbnailPath:    Text(in.ThumbnailPath),
		SortOrder:        int32(in.SortOrder),
	})
	if IsForeignKeyViolation(err) {
		return nil, apperr.NotFound("video.create", "course %s not found", in.CourseID)
	}
	if err != nil {
		return nil, apperr.IO("video.create", err)
	}
	return toAsset(row), nil
}

func (s *AssetStore) FindByID(ctx context.Context, id uuid.UUID) (*video.Asset, error) {
	row, err := s.q.GetVideoAsset(ctx, UUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("video.find", "video %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("video.find", err)
	}
	return toAsset(row), nil
}

func (s *AssetStore) UpdateDetails(ctx context.Context, id uuid.UUID, patch video.DetailsPatch) (*video.Asset, error) {
	row, err := s.q.UpdateVideoAssetDetails(ctx, UpdateVideoAssetDetailsParams{
		ID:          UUID(id),
		Title:       Text(patch.Title),
		Description: Text(patch.Description),
		SortOrder:   Int4(patch.SortOrder),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("video.update", "video %s not found", id)
	}
	if err != nil {
		return nil, apperr.IO("video.update", err)
	}
	return toAsset(row), nil
}

func (s *AssetStore) Transition(ctx context.Context, id uuid.UUID, from, to video.Status, manifestPath *string) (*video.Asset, error) {
	if !from.CanTransition(to) {
		return nil, &video.TransitionError{AssetID: id.String(), From: from, To: to}
	}

	row, err := s.q.TransitionVideoAsset(ctx, TransitionVideoAssetParams{
		ID:           UUID(id),
		FromStatus:   VideoStatus(from),
		ToStatus:     VideoStatus(to),
		ManifestPath: Text(manifestPath),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		current, serr := s.q.GetVideoAssetStatus(ctx, UUID(id))
		if errors.Is(serr, pgx.ErrNoRows) {
			return nil, apperr.NotFound("video.transition", "video %s not found", id)
		}
		if serr != nil {
			return nil, apperr.IO("video.transition", serr)
		}
		return nil, apperr.Conflict("video.transition", "video %s is %s, not %s", id, current, from)
	}
	if err != nil {
		return nil, apperr.IO("video.transition", err)
	}
	return toAsset(row), nil
}

func (s *AssetStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	n, err := s.q.SoftDeleteVideoAsset(ctx, UUID(id))
	if err != nil {
		return apperr.IO("video.delete", err)
	}
	if n == 0 {
		return apperr.NotFound("video.delete", "video %s not found", id)
	}
	return nil
}

func (s *AssetStore) ListAll(ctx context.Context) ([]*video.Asset, error) {
	rows, err := s.q.ListVideoAssets(ctx)
	if err != nil {
		return nil, apperr.IO("video.list", err)
	}
	return toAssets(rows), nil
}

func (s *AssetStore) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*video.Asset, error) {
	rows, err := s.q.ListVideoAssetsByCourse(ctx, UUID(courseID))
	if err != nil {
		return nil, apperr.IO("video.list", err)
	}
	return toAssets(rows), nil
}

func (s *AssetStore) ListByStatus(ctx context.Context, status video.Status) ([]*video.Asset, error) {
	rows, err := s.q.ListVideoAssetsByStatus(ctx, VideoStatus(status))
	if err != nil {
		return nil, apperr.IO("video.list", err)
	}
	return toAssets(rows), nil
}
