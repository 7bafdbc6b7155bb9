package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createIngredient = `-- name: CreateIngredient :one
INSERT INTO ingredients (name, category, stock_unit, current_stock, min_stock, max_stock, unit_cost)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, name, category, stock_unit, current_stock, min_stock, max_stock, unit_cost, created_at, updated_at
`

type CreateIngredientParams struct {
	Name         string
	Category     string
	StockUnit    string
	CurrentStock pgtype.Numeric
	MinStock     pgtype.Numeric
	MaxStock     pgtype.Numeric
	UnitCost     pgtype.Numeric
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, createIngredient,
		arg.Name, arg.Category, arg.StockUnit, arg.CurrentStock, arg.MinStock, arg.MaxStock, arg.UnitCost)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Category, &i.StockUnit, &i.CurrentStock,
		&i.MinStock, &i.MaxStock, &i.UnitCost, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getIngredient = `-- name: GetIngredient :one
SELECT id, name, category, stock_unit, current_stock, min_stock, max_stock, unit_cost, created_at, updated_at
FROM ingredients
WHERE id = $1
`

func (q *Queries) GetIngredient(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	row := q.db.QueryRow(ctx, getIngredient, id)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Category, &i.StockUnit, &i.CurrentStock,
		&i.MinStock, &i.MaxStock, &i.UnitCost, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listIngredients = `-- name: ListIngredients :many
SELECT id, name, category, stock_unit, current_stock, min_stock, max_stock, unit_cost, created_at, updated_at
FROM ingredients
ORDER BY name
`

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, listIngredients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Ingredient
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.Category, &i.StockUnit, &i.CurrentStock,
			&i.MinStock, &i.MaxStock, &i.UnitCost, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateIngredient = `-- name: UpdateIngredient :one
UPDATE ingredients
SET name = $2, category = $3, stock_unit = $4, min_stock = $5, max_stock = $6, unit_cost = $7, updated_at = now()
WHERE id = $1
RETURNING id, name, category, stock_unit, current_stock, min_stock, max_stock, unit_cost, created_at, updated_at
`

type UpdateIngredientParams struct {
	ID        uuid.UUID
	Name      string
	Category  string
	StockUnit string
	MinStock  pgtype.Numeric
	MaxStock  pgtype.Numeric
	UnitCost  pgtype.Numeric
}

// UpdateIngredient deliberately excludes current_stock; stock moves
// only through ApplyStockDelta.
func (q *Queries) UpdateIngredient(ctx context.Context, arg UpdateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, updateIngredient,
		arg.ID, arg.Name, arg.Category, arg.StockUnit, arg.MinStock, arg.MaxStock, arg.UnitCost)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Category, &i.StockUnit, &i.CurrentStock,
		&i.MinStock, &i.MaxStock, &i.UnitCost, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const applyStockDelta = `-- name: ApplyStockDelta :one
UPDATE ingredients
SET current_stock = round(current_stock + $2, 3), updated_at = now()
WHERE id = $1 AND round(current_stock + $2, 3) >= 0
RETURNING id, name, category, stock_unit, current_stock, min_stock, max_stock, unit_cost, created_at, updated_at
`

type ApplyStockDeltaParams struct {
	ID    uuid.UUID
	Delta pgtype.Numeric
}

// ApplyStockDelta applies a signed delta as a single conditional
// update; there is no read-then-write window. pgx.ErrNoRows means the
// ingredient is missing or the delta would take stock negative —
// callers disambiguate with GetIngredient.
func (q *Queries) ApplyStockDelta(ctx context.Context, arg ApplyStockDeltaParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, applyStockDelta, arg.ID, arg.Delta)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Category, &i.StockUnit, &i.CurrentStock,
		&i.MinStock, &i.MaxStock, &i.UnitCost, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const deleteIngredient = `-- name: DeleteIngredient :one
DELETE FROM ingredients
WHERE id = $1
RETURNING id
`

// DeleteIngredient fails with a foreign key violation (23503) while a
// recipe line or stock movement still references the ingredient.
func (q *Queries) DeleteIngredient(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteIngredient, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
