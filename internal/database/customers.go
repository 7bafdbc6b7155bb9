package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createCustomer = `-- name: CreateCustomer :one
INSERT INTO customers (name, phone)
VALUES ($1, $2)
RETURNING id, name, phone, created_at, updated_at
`

type CreateCustomerParams struct {
	Name  string
	Phone pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, createCustomer, arg.Name, arg.Phone)
	var i Customer
	err := row.Scan(&i.ID, &i.Name, &i.Phone, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getCustomer = `-- name: GetCustomer :one
SELECT id, name, phone, created_at, updated_at
FROM customers
WHERE id = $1
`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomer, id)
	var i Customer
	err := row.Scan(&i.ID, &i.Name, &i.Phone, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listCustomers = `-- name: ListCustomers :many
SELECT id, name, phone, created_at, updated_at
FROM customers
ORDER BY name
LIMIT $1 OFFSET $2
`

type ListCustomersParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Customer
	for rows.Next() {
		var i Customer
		if err := rows.Scan(&i.ID, &i.Name, &i.Phone, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateCustomer = `-- name: UpdateCustomer :one
UPDATE customers
SET name = $2, phone = $3, updated_at = now()
WHERE id = $1
RETURNING id, name, phone, created_at, updated_at
`

type UpdateCustomerParams struct {
	ID    uuid.UUID
	Name  string
	Phone pgtype.Text
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, updateCustomer, arg.ID, arg.Name, arg.Phone)
	var i Customer
	err := row.Scan(&i.ID, &i.Name, &i.Phone, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const deleteCustomer = `-- name: DeleteCustomer :one
DELETE FROM customers
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteCustomer(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteCustomer, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
