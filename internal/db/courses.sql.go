package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const courseColumns = `id, title, description, image_url, active, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }) (*Course, error) {
	var i Course
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.ImageUrl,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const insertCourse = `-- name: InsertCourse :one
INSERT INTO courses (id, title, description, image_url)
VALUES ($1, $2, $3, $4)
RETURNING ` + courseColumns

type InsertCourseParams struct {
	ID          pgtype.UUID `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ImageUrl    string      `json:"image_url"`
}

func (q *Queries) InsertCourse(ctx context.Context, arg InsertCourseParams) (*Course, error) {
	return scanCourse(q.db.QueryRow(ctx, insertCourse, arg.ID, arg.Title, arg.Description, arg.ImageUrl))
}

const getCourse = `-- name: GetCourse :one
SELECT ` + courseColumns + `
FROM courses
WHERE id = $1 AND active
`

func (q *Queries) GetCourse(ctx context.Context, id pgtype.UUID) (*Course, error) {
	return scanCourse(q.db.QueryRow(ctx, getCourse, id))
}

const courseExists = `-- name: CourseExists :one
SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1 AND active)
`

func (q *Queries) CourseExists(ctx context.Context, id pgtype.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, courseExists, id).Scan(&exists)
	return exists, err
}

const listCourses = `-- name: ListCourses :many
SELECT ` + courseColumns + `
FROM courses
WHERE active
ORDER BY created_at DESC
`

func (q *Queries) ListCourses(ctx context.Context) ([]*Course, error) {
	rows, err := q.db.Query(ctx, listCourses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*Course{}
	for rows.Next() {
		i, err := scanCourse(rows)
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
