package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createStockMovement = `-- name: CreateStockMovement :one
INSERT INTO stock_movements (ingredient_id, movement_type, quantity, reason, reference_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, ingredient_id, movement_type, quantity, reason, reference_id, created_at
`

type CreateStockMovementParams struct {
	IngredientID uuid.UUID
	MovementType string
	Quantity     pgtype.Numeric
	Reason       string
	ReferenceID  pgtype.UUID
}

func (q *Queries) CreateStockMovement(ctx context.Context, arg CreateStockMovementParams) (StockMovement, error) {
	row := q.db.QueryRow(ctx, createStockMovement,
		arg.IngredientID, arg.MovementType, arg.Quantity, arg.Reason, arg.ReferenceID)
	var i StockMovement
	err := row.Scan(&i.ID, &i.IngredientID, &i.MovementType, &i.Quantity, &i.Reason, &i.ReferenceID, &i.CreatedAt)
	return i, err
}

const listStockMovementsByIngredient = `-- name: ListStockMovementsByIngredient :many
SELECT id, ingredient_id, movement_type, quantity, reason, reference_id, created_at
FROM stock_movements
WHERE ingredient_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListStockMovementsByIngredientParams struct {
	IngredientID uuid.UUID
	Limit        int32
	Offset       int32
}

func (q *Queries) ListStockMovementsByIngredient(ctx context.Context, arg ListStockMovementsByIngredientParams) ([]StockMovement, error) {
	rows, err := q.db.Query(ctx, listStockMovementsByIngredient, arg.IngredientID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockMovement
	for rows.Next() {
		var i StockMovement
		if err := rows.Scan(&i.ID, &i.IngredientID, &i.MovementType, &i.Quantity, &i.Reason, &i.ReferenceID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listStockMovementsByReference = `-- name: ListStockMovementsByReference :many
SELECT id, ingredient_id, movement_type, quantity, reason, reference_id, created_at
FROM stock_movements
WHERE reference_id = $1
ORDER BY created_at
`

func (q *Queries) ListStockMovementsByReference(ctx context.Context, referenceID pgtype.UUID) ([]StockMovement, error) {
	rows, err := q.db.Query(ctx, listStockMovementsByReference, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockMovement
	for rows.Next() {
		var i StockMovement
		if err := rows.Scan(&i.ID, &i.IngredientID, &i.MovementType, &i.Quantity, &i.Reason, &i.ReferenceID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
