package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"thirdcoast.systems/lessonstream/pkg/utils/passwords"
)

const userColumns = `id, user_name, email, password, role, enabled, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.UserName,
		&i.Email,
		&i.Password,
		&i.Role,
		&i.Enabled,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const insertUser = `-- name: InsertUser :one
INSERT INTO users (id, user_name, email, password, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

type InsertUserParams struct {
	ID       pgtype.UUID        `json:"id"`
	UserName string             `json:"user_name"`
	Email    string             `json:"email"`
	Password passwords.Password `json:"password"`
	Role     UserRole           `json:"role"`
}

func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) (*User, error) {
	row := q.db.QueryRow(ctx, insertUser, arg.ID, arg.UserName, arg.Email, string(arg.Password), string(arg.Role))
	return scanUser(row)
}

const getUserByLogin = `-- name: GetUserByLogin :one
SELECT ` + userColumns + `
FROM users
WHERE lower(user_name) = lower($1) OR lower(email) = lower($1)
LIMIT 1
`

func (q *Queries) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByLogin, login))
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (*User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const countUsers = `-- name: CountUsers :one
SELECT count(*) FROM users
`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countUsers).Scan(&count)
	return count, err
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + `
FROM users
ORDER BY created_at, user_name
`

func (q *Queries) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*User{}
	for rows.Next() {
		i, err := scanUser(rows)
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

const setUserRole = `-- name: SetUserRole :one
UPDATE users SET role = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (q *Queries) SetUserRole(ctx context.Context, id pgtype.UUID, role UserRole) (*User, error) {
	return scanUser(q.db.QueryRow(ctx, setUserRole, id, string(role)))
}

const setUserEnabled = `-- name: SetUserEnabled :one
UPDATE users SET enabled = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (q *Queries) SetUserEnabled(ctx context.Context, id pgtype.UUID, enabled bool) (*User, error) {
	return scanUser(q.db.QueryRow(ctx, setUserEnabled, id, enabled))
}
