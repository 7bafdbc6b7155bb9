package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createRecipeLine = `-- name: CreateRecipeLine :one
INSERT INTO recipe_lines (menu_item_id, ingredient_id, quantity, unit)
VALUES ($1, $2, $3, $4)
RETURNING id, menu_item_id, ingredient_id, quantity, unit, created_at
`

type CreateRecipeLineParams struct {
	MenuItemID   uuid.UUID
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
	Unit         string
}

// CreateRecipeLine fails with a unique violation (23505, constraint
// recipe_lines_menu_item_id_ingredient_id_key) for a duplicate
// (menu item, ingredient) pair.
func (q *Queries) CreateRecipeLine(ctx context.Context, arg CreateRecipeLineParams) (RecipeLine, error) {
	row := q.db.QueryRow(ctx, createRecipeLine, arg.MenuItemID, arg.IngredientID, arg.Quantity, arg.Unit)
	var i RecipeLine
	err := row.Scan(&i.ID, &i.MenuItemID, &i.IngredientID, &i.Quantity, &i.Unit, &i.CreatedAt)
	return i, err
}

const listRecipeLinesByMenuItem = `-- name: ListRecipeLinesByMenuItem :many
SELECT id, menu_item_id, ingredient_id, quantity, unit, created_at
FROM recipe_lines
WHERE menu_item_id = $1
ORDER BY created_at
`

func (q *Queries) ListRecipeLinesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]RecipeLine, error) {
	rows, err := q.db.Query(ctx, listRecipeLinesByMenuItem, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipeLine
	for rows.Next() {
		var i RecipeLine
		if err := rows.Scan(&i.ID, &i.MenuItemID, &i.IngredientID, &i.Quantity, &i.Unit, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteRecipeLine = `-- name: DeleteRecipeLine :one
DELETE FROM recipe_lines
WHERE id = $1 AND menu_item_id = $2
RETURNING id
`

type DeleteRecipeLineParams struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
}

func (q *Queries) DeleteRecipeLine(ctx context.Context, arg DeleteRecipeLineParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteRecipeLine, arg.ID, arg.MenuItemID)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
