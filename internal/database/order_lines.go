package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderLine = `-- name: CreateOrderLine :one
INSERT INTO order_lines (order_id, menu_item_id, quantity, unit_price, subtotal, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, menu_item_id, quantity, unit_price, subtotal, notes, created_at
`

type CreateOrderLineParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	Subtotal   pgtype.Numeric
	Notes      pgtype.Text
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, createOrderLine,
		arg.OrderID, arg.MenuItemID, arg.Quantity, arg.UnitPrice, arg.Subtotal, arg.Notes)
	var i OrderLine
	err := row.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.Quantity, &i.UnitPrice, &i.Subtotal, &i.Notes, &i.CreatedAt)
	return i, err
}

const getOrderLine = `-- name: GetOrderLine :one
SELECT id, order_id, menu_item_id, quantity, unit_price, subtotal, notes, created_at
FROM order_lines
WHERE id = $1 AND order_id = $2
`

type GetOrderLineParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetOrderLine(ctx context.Context, arg GetOrderLineParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, getOrderLine, arg.ID, arg.OrderID)
	var i OrderLine
	err := row.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.Quantity, &i.UnitPrice, &i.Subtotal, &i.Notes, &i.CreatedAt)
	return i, err
}

const listOrderLinesByOrder = `-- name: ListOrderLinesByOrder :many
SELECT id, order_id, menu_item_id, quantity, unit_price, subtotal, notes, created_at
FROM order_lines
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLinesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderLine
	for rows.Next() {
		var i OrderLine
		if err := rows.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.Quantity, &i.UnitPrice, &i.Subtotal, &i.Notes, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteOrderLine = `-- name: DeleteOrderLine :one
DELETE FROM order_lines
WHERE id = $1 AND order_id = $2
RETURNING id
`

type DeleteOrderLineParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) DeleteOrderLine(ctx context.Context, arg DeleteOrderLineParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteOrderLine, arg.ID, arg.OrderID)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
