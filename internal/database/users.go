package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, full_name, email, hashed_password, pin, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var i User
	err := row.Scan(&i.ID, &i.FullName, &i.Email, &i.HashedPassword, &i.Pin,
		&i.Role, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (full_name, email, hashed_password, pin, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

type CreateUserParams struct {
	FullName       string
	Email          string
	HashedPassword string
	Pin            pgtype.Text
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser,
		arg.FullName, arg.Email, arg.HashedPassword, arg.Pin, arg.Role))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + `
FROM users
WHERE email = $1 AND is_active = TRUE
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByPin = `-- name: GetUserByPin :one
SELECT ` + userColumns + `
FROM users
WHERE pin = $1 AND is_active = TRUE
`

func (q *Queries) GetUserByPin(ctx context.Context, pin string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByPin, pin))
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + `
FROM users
WHERE is_active = TRUE
ORDER BY full_name
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateUser = `-- name: UpdateUser :one
UPDATE users
SET full_name = $2, role = $3, pin = $4, updated_at = now()
WHERE id = $1 AND is_active = TRUE
RETURNING ` + userColumns

type UpdateUserParams struct {
	ID       uuid.UUID
	FullName string
	Role     string
	Pin      pgtype.Text
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUser, arg.ID, arg.FullName, arg.Role, arg.Pin))
}

const deactivateUser = `-- name: DeactivateUser :one
UPDATE users
SET is_active = FALSE, updated_at = now()
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

func (q *Queries) DeactivateUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deactivateUser, id)
	var deactivated uuid.UUID
	err := row.Scan(&deactivated)
	return deactivated, err
}
