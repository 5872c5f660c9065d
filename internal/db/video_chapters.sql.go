package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const videoChapterColumns = `id, video_id, title, description, start_time, sort_order, active, created_at, updated_at`

func scanVideoChapter(row interface{ Scan(...any) error }) (*VideoChapter, error) {
	var i VideoChapter
	err := row.Scan(
		&i.ID,
		&i.VideoID,
		&i.Title,
		&i.Description,
		&i.StartTime,
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

const insertVideoChapter = `-- name: InsertVideoChapter :one
INSERT INTO video_chapters (id, video_id, title, description, start_time, sort_order)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + videoChapterColumns

type InsertVideoChapterParams struct {
	ID          pgtype.UUID `json:"id"`
	VideoID     pgtype.UUID `json:"video_id"`
	Title       string      `json:"title"`
	Description pgtype.Text `json:"description"`
	StartTime   int32       `json:"start_time"`
	SortOrder   int32       `json:"sort_order"`
}

func (q *Queries) InsertVideoChapter(ctx context.Context, arg InsertVideoChapterParams) (*VideoChapter, error) {
	row := q.db.QueryRow(ctx, insertVideoChapter,
		arg.ID,
		arg.VideoID,
		arg.Title,
		arg.Description,
		arg.StartTime,
		arg.SortOrder,
	)
	return scanVideoChapter(row)
}

const getVideoChapter = `-- name: GetVideoChapter :one
SELECT ` + videoChapterColumns + `
FROM video_chapters
WHERE id = $1 AND active
`

func (q *Queries) GetVideoChapter(ctx context.Context, id pgtype.UUID) (*VideoChapter, error) {
	return scanVideoChapter(q.db.QueryRow(ctx, getVideoChapter, id))
}

const updateVideoChapter = `-- name: UpdateVideoChapter :one
UPDATE video_chapters
SET title       = COALESCE($2::text, title),
    description = COALESCE($3::text, description),
    start_time  = COALESCE($4::integer, start_time),
    sort_order  = COALESCE($5::integer, sort_order),
    updated_at  = now()
WHERE id = $1 AND active
RETURNING ` + videoChapterColumns

type UpdateVideoChapterParams struct {
	ID          pgtype.UUID `json:"id"`
	Title       pgtype.Text `json:"title"`
	Description pgtype.Text `json:"description"`
	StartTime   pgtype.Int4 `json:"start_time"`
	SortOrder   pgtype.Int4 `json:"sort_order"`
}

func (q *Queries) UpdateVideoChapter(ctx context.Context, arg UpdateVideoChapterParams) (*VideoChapter, error) {
	row := q.db.QueryRow(ctx, updateVideoChapter, arg.ID, arg.Title, arg.Description, arg.StartTime, arg.SortOrder)
	return scanVideoChapter(row)
}

const softDeleteVideoChapter = `-- name: SoftDeleteVideoChapter :execrows
UPDATE video_chapters SET active = false, updated_at = now()
WHERE id = $1 AND active
`

func (q *Queries) SoftDeleteVideoChapter(ctx context.Context, id pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteVideoChapter, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listVideoChapters = `-- name: ListVideoChapters :many
SELECT ` + videoChapterColumns + `
FROM video_chapters
WHERE active
ORDER BY sort_order ASC, start_time ASC, created_at ASC
`

func (q *Queries) ListVideoChapters(ctx context.Context) ([]*VideoChapter, error) {
	return q.queryVideoChapters(ctx, listVideoChapters)
}

const listVideoChaptersByVideo = `-- name: ListVideoChaptersByVideo :many
SELECT ` + videoChapterColumns + `
FROM video_chapters
WHERE video_id = $1 AND active
ORDER BY sort_order ASC, start_time ASC, created_at ASC
`

func (q *Queries) ListVideoChaptersByVideo(ctx context.Context, videoID pgtype.UUID) ([]*VideoChapter, error) {
	return q.queryVideoChapters(ctx, listVideoChaptersByVideo, videoID)
}

func (q *Queries) queryVideoChapters(ctx context.Context, query string, args ...interface{}) ([]*VideoChapter, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*VideoChapter{}
	for rows.Next() {
		i, err := scanVideoChapter(rows)
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
