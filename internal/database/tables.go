package database

import (
	"context"

	"github.com/google/uuid"
)

const createTable = `-- name: CreateTable :one
INSERT INTO tables (name, capacity)
VALUES ($1, $2)
RETURNING id, name, capacity, status, created_at, updated_at
`

type CreateTableParams struct {
	Name     string
	Capacity int32
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, createTable, arg.Name, arg.Capacity)
	var i Table
	err := row.Scan(&i.ID, &i.Name, &i.Capacity, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getTable = `-- name: GetTable :one
SELECT id, name, capacity, status, created_at, updated_at
FROM tables
WHERE id = $1
`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, getTable, id)
	var i Table
	err := row.Scan(&i.ID, &i.Name, &i.Capacity, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listTables = `-- name: ListTables :many
SELECT id, name, capacity, status, created_at, updated_at
FROM tables
ORDER BY name
`

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var i Table
		if err := rows.Scan(&i.ID, &i.Name, &i.Capacity, &i.Status, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateTable = `-- name: UpdateTable :one
UPDATE tables
SET name = $2, capacity = $3, updated_at = now()
WHERE id = $1
RETURNING id, name, capacity, status, created_at, updated_at
`

type UpdateTableParams struct {
	ID       uuid.UUID
	Name     string
	Capacity int32
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, updateTable, arg.ID, arg.Name, arg.Capacity)
	var i Table
	err := row.Scan(&i.ID, &i.Name, &i.Capacity, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const transitionTableStatus = `-- name: TransitionTableStatus :one
UPDATE tables
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING id, name, capacity, status, created_at, updated_at
`

type TransitionTableStatusParams struct {
	ID   uuid.UUID
	From string
	To   string
}

// TransitionTableStatus flips a table's status only when it currently
// holds From. Returns pgx.ErrNoRows when the table is already past the
// transition, which callers treat as an idempotent no-op.
func (q *Queries) TransitionTableStatus(ctx context.Context, arg TransitionTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, transitionTableStatus, arg.ID, arg.From, arg.To)
	var i Table
	err := row.Scan(&i.ID, &i.Name, &i.Capacity, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const deleteTable = `-- name: DeleteTable :one
DELETE FROM tables
WHERE id = $1
RETURNING id
`

// DeleteTable fails with a foreign key violation (23503) while any
// order still references the table.
func (q *Queries) DeleteTable(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteTable, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}

const countOpenOrdersForTable = `-- name: CountOpenOrdersForTable :one
SELECT COUNT(*)
FROM orders
WHERE table_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED')
`

func (q *Queries) CountOpenOrdersForTable(ctx context.Context, tableID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countOpenOrdersForTable, tableID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
