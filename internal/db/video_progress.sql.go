package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const videoProgressColumns = `id, user_id, video_id, progress, last_position, completed, completed_at, created_at, updated_at`

func scanVideoProgress(row interface{ Scan(...any) error }) (*VideoProgress, error) {
	var i VideoProgress
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.VideoID,
		&i.Progress,
		&i.LastPosition,
		&i.Completed,
		&i.CompletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const getVideoProgress = `-- name: GetVideoProgress :one
SELECT ` + videoProgressColumns + `
FROM video_progress
WHERE user_id = $1 AND video_id = $2
`

func (q *Queries) GetVideoProgress(ctx context.Context, userID, videoID pgtype.UUID) (*VideoProgress, error) {
	return scanVideoProgress(q.db.QueryRow(ctx, getVideoProgress, userID, videoID))
}

const insertVideoProgress = `-- name: InsertVideoProgress :one
INSERT INTO video_progress (id, user_id, video_id, progress, last_position, completed, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, video_id) DO NOTHING
RETURNING ` + videoProgressColumns

type InsertVideoProgressParams struct {
	ID           pgtype.UUID        `json:"id"`
	UserID       pgtype.UUID        `json:"user_id"`
	VideoID      pgtype.UUID        `json:"video_id"`
	Progress     float64            `json:"progress"`
	LastPosition int32              `json:"last_position"`
	Completed    bool               `json:"completed"`
	CompletedAt  pgtype.Timestamptz `json:"completed_at"`
}

// InsertVideoProgress returns pgx.ErrNoRows when a row for the
// (user_id, video_id) pair already exists.
func (q *Queries) InsertVideoProgress(ctx context.Context, arg InsertVideoProgressParams) (*VideoProgress, error) {
	row := q.db.QueryRow(ctx, insertVideoProgress,
		arg.ID,
		arg.UserID,
		arg.VideoID,
		arg.Progress,
		arg.LastPosition,
		arg.Completed,
		arg.CompletedAt,
	)
	return scanVideoProgress(row)
}

// completed only ever turns on. completed_at keeps its first value unless
// the caller overrides it.
const updateVideoProgress = `-- name: UpdateVideoProgress :one
UPDATE video_progress
SET progress      = COALESCE($2::double precision, progress),
    last_position = COALESCE($3::integer, last_position),
    completed     = completed OR COALESCE($4::boolean, false),
    completed_at  = CASE
        WHEN $6::boolean AND $5::timestamptz IS NOT NULL THEN $5::timestamptz
        ELSE COALESCE(completed_at, $5::timestamptz)
    END,
    updated_at    = now()
WHERE id = $1
RETURNING ` + videoProgressColumns

type UpdateVideoProgressParams struct {
	ID                  pgtype.UUID        `json:"id"`
	Progress            pgtype.Float8      `json:"progress"`
	LastPosition        pgtype.Int4        `json:"last_position"`
	Completed           pgtype.Bool        `json:"completed"`
	CompletedAt         pgtype.Timestamptz `json:"completed_at"`
	OverrideCompletedAt bool               `json:"override_completed_at"`
}

func (q *Queries) UpdateVideoProgress(ctx context.Context, arg UpdateVideoProgressParams) (*VideoProgress, error) {
	row := q.db.QueryRow(ctx, updateVideoProgress,
		arg.ID,
		arg.Progress,
		arg.LastPosition,
		arg.Completed,
		arg.CompletedAt,
		arg.OverrideCompletedAt,
	)
	return scanVideoProgress(row)
}

const listVideoProgressByUser = `-- name: ListVideoProgressByUser :many
SELECT ` + videoProgressColumns + `
FROM video_progress
WHERE user_id = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListVideoProgressByUser(ctx context.Context, userID pgtype.UUID) ([]*VideoProgress, error) {
	return q.queryVideoProgress(ctx, listVideoProgressByUser, userID)
}

const listVideoProgressByVideo = `-- name: ListVideoProgressByVideo :many
SELECT ` + videoProgressColumns + `
FROM video_progress
WHERE video_id = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListVideoProgressByVideo(ctx context.Context, videoID pgtype.UUID) ([]*VideoProgress, error) {
	return q.queryVideoProgress(ctx, listVideoProgressByVideo, videoID)
}

func (q *Queries) queryVideoProgress(ctx context.Context, query string, args ...interface{}) ([]*VideoProgress, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*VideoProgress{}
	for rows.Next() {
		i, err := scanVideoProgress(rows)
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
