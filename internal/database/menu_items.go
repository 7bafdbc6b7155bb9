package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (name, unit_price, is_available)
VALUES ($1, $2, $3)
RETURNING id, name, unit_price, is_available, created_at, updated_at
`

type CreateMenuItemParams struct {
	Name        string
	UnitPrice   pgtype.Numeric
	IsAvailable bool
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem, arg.Name, arg.UnitPrice, arg.IsAvailable)
	var i MenuItem
	err := row.Scan(&i.ID, &i.Name, &i.UnitPrice, &i.IsAvailable, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT id, name, unit_price, is_available, created_at, updated_at
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	var i MenuItem
	err := row.Scan(&i.ID, &i.Name, &i.UnitPrice, &i.IsAvailable, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT id, name, unit_price, is_available, created_at, updated_at
FROM menu_items
ORDER BY name
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(&i.ID, &i.Name, &i.UnitPrice, &i.IsAvailable, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu_items
SET name = $2, unit_price = $3, is_available = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, unit_price, is_available, created_at, updated_at
`

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	UnitPrice   pgtype.Numeric
	IsAvailable bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem, arg.ID, arg.Name, arg.UnitPrice, arg.IsAvailable)
	var i MenuItem
	err := row.Scan(&i.ID, &i.Name, &i.UnitPrice, &i.IsAvailable, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const deleteMenuItem = `-- name: DeleteMenuItem :one
DELETE FROM menu_items
WHERE id = $1
RETURNING id
`

// DeleteMenuItem fails with a foreign key violation (23503) while any
// order line still references the item.
func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteMenuItem, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
