package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, table_id, customer_id, status, notes, subtotal, tax_amount, discount_amount, total_amount, paid, paid_at, created_by, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var i Order
	err := row.Scan(&i.ID, &i.OrderNumber, &i.TableID, &i.CustomerID, &i.Status, &i.Notes,
		&i.Subtotal, &i.TaxAmount, &i.DiscountAmount, &i.TotalAmount,
		&i.Paid, &i.PaidAt, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (order_number, table_id, customer_id, status, notes, subtotal, tax_amount, discount_amount, total_amount, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderNumber    string
	TableID        uuid.UUID
	CustomerID     pgtype.UUID
	Status         string
	Notes          pgtype.Text
	Subtotal       pgtype.Numeric
	TaxAmount      pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TotalAmount    pgtype.Numeric
	CreatedBy      uuid.UUID
}

// CreateOrder fails with a unique violation (23505, constraint
// orders_order_number_key) when two transactions race on the same
// daily sequence; callers retry number generation.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, arg.TableID, arg.CustomerID, arg.Status, arg.Notes,
		arg.Subtotal, arg.TaxAmount, arg.DiscountAmount, arg.TotalAmount, arg.CreatedBy)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR UPDATE
`

// GetOrderForUpdate locks the order row for the duration of the
// transaction so concurrent mutations serialize per order.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::uuid IS NULL OR table_id = $2)
  AND ($3::timestamptz IS NULL OR created_at >= $3)
  AND ($4::timestamptz IS NULL OR created_at < $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	Status    pgtype.Text
	TableID   pgtype.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status, arg.TableID, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getNextOrderSequence = `-- name: GetNextOrderSequence :one
SELECT COALESCE(MAX(CAST(RIGHT(order_number, 4) AS INT)), 0) + 1
FROM orders
WHERE order_number LIKE $1 || '%'
`

// GetNextOrderSequence derives the next 4-digit daily sequence from
// the highest existing order number for the given YYYYMMDD prefix.
func (q *Queries) GetNextOrderSequence(ctx context.Context, datePrefix string) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderSequence, datePrefix)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// UpdateOrderStatus transitions only from the expected current status;
// pgx.ErrNoRows signals a concurrent transition.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus))
}

const completeOrder = `-- name: CompleteOrder :one
UPDATE orders
SET status = 'COMPLETED', paid = TRUE, paid_at = now(), updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + orderColumns

type CompleteOrderParams struct {
	ID         uuid.UUID
	FromStatus string
}

func (q *Queries) CompleteOrder(ctx context.Context, arg CompleteOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, completeOrder, arg.ID, arg.FromStatus))
}

const updateOrderTotals = `-- name: UpdateOrderTotals :one
UPDATE orders
SET subtotal = $2, tax_amount = $3, discount_amount = $4, total_amount = $5, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderTotalsParams struct {
	ID             uuid.UUID
	Subtotal       pgtype.Numeric
	TaxAmount      pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TotalAmount    pgtype.Numeric
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderTotals,
		arg.ID, arg.Subtotal, arg.TaxAmount, arg.DiscountAmount, arg.TotalAmount))
}

const deleteOrder = `-- name: DeleteOrder :one
DELETE FROM orders
WHERE id = $1
RETURNING id
`

// DeleteOrder removes the order; order lines cascade at the schema
// level. Payments must be removed first.
func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteOrder, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
