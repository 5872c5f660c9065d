package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const videoAssetColumns = `id, course_id, title, description, duration, original_filename, file_path,
    thumbnail_path, manifest_path, status, sort_order, active, created_at, updated_at`

func scanVideoAsset(row interface{ Scan(...any) error }) (*VideoAsset, error) {
	var i VideoAsset
	err := row.Scan(
		&i.ID,
		&i.CourseID,
		&i.Title,
		&i.Description,
		&i.Duration,
		&i.OriginalFilename,
		&i.FilePath,
		&i.ThumbnailPath,
		&i.ManifestPath,
		&i.Status,
		&i.SortOrder,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const insertVideoAsset = `-- name: InsertVideoAsset :one
INSERT INTO video_assets (
    id, course_id, title, description, duration, original_filename, file_path, thumbnail_path, sort_order
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9
)
RETURNING ` + videoAssetColumns

type InsertVideoAssetParams struct {
	ID               pgtype.UUID `json:"id"`
	CourseID         pgtype.UUID `json:"course_id"`
	Title            string      `json:"title"`
	Description      pgtype.Text `json:"description"`
	Duration         int32       `json:"duration"`
	OriginalFilename string      `json:"original_filename"`
	FilePath         string      `json:"file_path"`
	ThumbnailPath    pgtype.Text `json:"thumbnail_path"`
	SortOrder        int32       `json:"sort_order"`
}

func (q *Queries) InsertVideoAsset(ctx context.Context, arg InsertVideoAssetParams) (*VideoAsset, error) {
	row := q.db.QueryRow(ctx, insertVideoAsset,
		arg.ID,
		arg.CourseID,
		arg.Title,
		arg.Description,
		arg.Duration,
		arg.OriginalFilename,
		arg.FilePath,
		arg.ThumbnailPath,
		arg.SortOrder,
	)
	return scanVideoAsset(row)
}

const getVideoAsset = `-- name: GetVideoAsset :one
SELECT ` + videoAssetColumns + `
FROM video_assets
WHERE id = $1 AND active
`

func (q *Queries) GetVideoAsset(ctx context.Context, id pgtype.UUID) (*VideoAsset, error) {
	return scanVideoAsset(q.db.QueryRow(ctx, getVideoAsset, id))
}

const getVideoAssetStatus = `-- name: GetVideoAssetStatus :one
SELECT status FROM video_assets WHERE id = $1
`

// GetVideoAssetStatus ignores the active flag.
func (q *Queries) GetVideoAssetStatus(ctx context.Context, id pgtype.UUID) (VideoStatus, error) {
	var status VideoStatus
	err := q.db.QueryRow(ctx, getVideoAssetStatus, id).Scan(&status)
	return status, err
}

const updateVideoAssetDetails = `-- name: UpdateVideoAssetDetails :one
UPDATE video_assets
SET title       = COALESCE($2::text, title),
    description = COALESCE($3::text, description),
    sort_order  = COALESCE($4::integer, sort_order),
    updated_at  = now()
WHERE id = $1 AND active
RETURNING ` + videoAssetColumns

type UpdateVideoAssetDetailsParams struct {
	ID          pgtype.UUID `json:"id"`
	Title       pgtype.Text `json:"title"`
	Description pgtype.Text `json:"description"`
	SortOrder   pgtype.Int4 `json:"sort_order"`
}

func (q *Queries) UpdateVideoAssetDetails(ctx context.Context, arg UpdateVideoAssetDetailsParams) (*VideoAsset, error) {
	row := q.db.QueryRow(ctx, updateVideoAssetDetails, arg.ID, arg.Title, arg.Description, arg.SortOrder)
	return scanVideoAsset(row)
}

const transitionVideoAsset = `-- name: TransitionVideoAsset :one
UPDATE video_assets
SET status        = $3,
    manifest_path = COALESCE($4::text, manifest_path),
    updated_at    = now()
WHERE id = $1 AND status = $2
RETURNING ` + videoAssetColumns

type TransitionVideoAssetParams struct {
	ID           pgtype.UUID `json:"id"`
	FromStatus   VideoStatus `json:"from_status"`
	ToStatus     VideoStatus `json:"to_status"`
	ManifestPath pgtype.Text `json:"manifest_path"`
}

// TransitionVideoAsset is a compare-and-set on status. It returns
// pgx.ErrNoRows when the asset is missing or not in FromStatus.
func (q *Queries) TransitionVideoAsset(ctx context.Context, arg TransitionVideoAssetParams) (*VideoAsset, error) {
	row := q.db.QueryRow(ctx, transitionVideoAsset, arg.ID, string(arg.FromStatus), string(arg.ToStatus), arg.ManifestPath)
	return scanVideoAsset(row)
}

const softDeleteVideoAsset = `-- name: SoftDeleteVideoAsset :execrows
UPDATE video_assets SET active = false, updated_at = now()
WHERE id = $1 AND active
`

func (q *Queries) SoftDeleteVideoAsset(ctx context.Context, id pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteVideoAsset, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listVideoAssets = `-- name: ListVideoAssets :many
SELECT ` + videoAssetColumns + `
FROM video_assets
WHERE active
ORDER BY sort_order ASC, created_at ASC
`

func (q *Queries) ListVideoAssets(ctx context.Context) ([]*VideoAsset, error) {
	return q.queryVideoAssets(ctx, listVideoAssets)
}

const listVideoAssetsByCourse = `-- name: ListVideoAssetsByCourse :many
SELECT ` + videoAssetColumns + `
FROM video_assets
WHERE course_id = $1 AND active
ORDER BY sort_order ASC, created_at ASC
`

func (q *Queries) ListVideoAssetsByCourse(ctx context.Context, courseID pgtype.UUID) ([]*VideoAsset, error) {
	return q.queryVideoAssets(ctx, listVideoAssetsByCourse, courseID)
}

const listVideoAssetsByStatus = `-- name: ListVideoAssetsByStatus :many
SELECT ` + videoAssetColumns + `
FROM video_assets
WHERE status = $1
ORDER BY created_at ASC
`

func (q *Queries) ListVideoAssetsByStatus(ctx context.Context, status VideoStatus) ([]*VideoAsset, error) {
	return q.queryVideoAssets(ctx, listVideoAssetsByStatus, string(status))
}

func (q *Queries) queryVideoAssets(ctx context.Context, query string, args ...interface{}) ([]*VideoAsset, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*VideoAsset{}
	for rows.Next() {
		i, err := scanVideoAsset(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
