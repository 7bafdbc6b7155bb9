package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/enum"
	"github.com/quanviet-pos/api/internal/measure"
	"github.com/shopspring/decimal"
)

var ErrIngredientNotFound = errors.New("ingredient not found")

// InsufficientStockError reports an OUT application that would take an
// ingredient's stock below zero. It carries the details needed for
// user-facing messaging.
type InsufficientStockError struct {
	IngredientID   uuid.UUID
	IngredientName string
	Required       decimal.Decimal
	Available      decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %s, available %s",
		e.IngredientName, e.Required, e.Available)
}

// StockStore defines the DB methods the ledger needs. Satisfied by
// *database.Queries, inside or outside a transaction.
type StockStore interface {
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	ApplyStockDelta(ctx context.Context, arg database.ApplyStockDeltaParams) (database.Ingredient, error)
	CreateStockMovement(ctx context.Context, arg database.CreateStockMovementParams) (database.StockMovement, error)
	ListRecipeLinesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]database.RecipeLine, error)
}

// StockLedger applies signed stock deltas and appends the matching
// movement rows. It is stateless; callers pass the store so ledger
// writes share the caller's transaction.
type StockLedger struct{}

// ApplyParams describes one signed stock application. A negative
// Quantity is an OUT movement, a positive one an IN movement.
type ApplyParams struct {
	IngredientID uuid.UUID
	Quantity     decimal.Decimal
	Reason       string
	ReferenceID  uuid.UUID // zero value means no reference
}

// Apply adjusts one ingredient's stock and appends the movement row.
// The delta is a single conditional update: an OUT that would go
// negative fails with *InsufficientStockError and leaves stock
// untouched.
func (StockLedger) Apply(ctx context.Context, store StockStore, arg ApplyParams) (database.StockMovement, error) {
	delta := arg.Quantity.Round(3)

	_, err := store.ApplyStockDelta(ctx, database.ApplyStockDeltaParams{
		ID:    arg.IngredientID,
		Delta: decimalToQtyNumeric(delta),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the ingredient is missing or the delta would go
			// negative; fetch to tell the two apart.
			ing, getErr := store.GetIngredient(ctx, arg.IngredientID)
			if getErr != nil {
				if errors.Is(getErr, pgx.ErrNoRows) {
					return database.StockMovement{}, fmt.Errorf("ingredient %s: %w", arg.IngredientID, ErrIngredientNotFound)
				}
				return database.StockMovement{}, fmt.Errorf("get ingredient: %w", getErr)
			}
			return database.StockMovement{}, &InsufficientStockError{
				IngredientID:   ing.ID,
				IngredientName: ing.Name,
				Required:       delta.Abs(),
				Available:      numericToDecimal(ing.CurrentStock),
			}
		}
		return database.StockMovement{}, fmt.Errorf("apply stock delta: %w", err)
	}

	movementType := enum.StockMovementIn
	if delta.IsNegative() {
		movementType = enum.StockMovementOut
	}

	referenceID := pgtype.UUID{}
	if arg.ReferenceID != uuid.Nil {
		referenceID = pgtype.UUID{Bytes: arg.ReferenceID, Valid: true}
	}

	movement, err := store.CreateStockMovement(ctx, database.CreateStockMovementParams{
		IngredientID: arg.IngredientID,
		MovementType: movementType,
		Quantity:     decimalToQtyNumeric(delta.Abs()),
		Reason:       arg.Reason,
		ReferenceID:  referenceID,
	})
	if err != nil {
		return database.StockMovement{}, fmt.Errorf("create stock movement: %w", err)
	}
	return movement, nil
}

// ConsumeForOrderLines deducts the recipe ingredients for every line.
// Any failure aborts immediately so the caller's transaction rolls the
// whole batch back: consumption is all-or-nothing.
func (l StockLedger) ConsumeForOrderLines(ctx context.Context, store StockStore, lines []database.OrderLine, orderID uuid.UUID) ([]database.StockMovement, error) {
	var movements []database.StockMovement
	for _, line := range lines {
		deltas, err := l.resolveLine(ctx, store, line)
		if err != nil {
			return nil, err
		}
		for _, d := range deltas {
			m, err := l.Apply(ctx, store, ApplyParams{
				IngredientID: d.ingredientID,
				Quantity:     d.quantity.Neg(),
				Reason:       enum.StockReasonOrderConsumption,
				ReferenceID:  orderID,
			})
			if err != nil {
				return nil, err
			}
			movements = append(movements, m)
		}
	}
	return movements, nil
}

// RefundForOrderLine returns the stock consumed by one line. The
// refund is best-effort: a failing ingredient is logged and skipped so
// the remaining ingredients (and the caller's operation) still
// complete.
func (l StockLedger) RefundForOrderLine(ctx context.Context, store StockStore, line database.OrderLine, reason string) []database.StockMovement {
	deltas, err := l.resolveLine(ctx, store, line)
	if err != nil {
		log.Printf("ERROR: resolve refund for order line %s: %v", line.ID, err)
		return nil
	}

	var movements []database.StockMovement
	for _, d := range deltas {
		m, err := l.Apply(ctx, store, ApplyParams{
			IngredientID: d.ingredientID,
			Quantity:     d.quantity,
			Reason:       reason,
			ReferenceID:  line.OrderID,
		})
		if err != nil {
			log.Printf("ERROR: refund ingredient %s for order %s: %v", d.ingredientID, line.OrderID, err)
			continue
		}
		movements = append(movements, m)
	}
	return movements
}

// RefundForOrder refunds every line of an order, best-effort.
func (l StockLedger) RefundForOrder(ctx context.Context, store StockStore, lines []database.OrderLine, reason string) []database.StockMovement {
	var movements []database.StockMovement
	for _, line := range lines {
		movements = append(movements, l.RefundForOrderLine(ctx, store, line, reason)...)
	}
	return movements
}

type ingredientDelta struct {
	ingredientID uuid.UUID
	quantity     decimal.Decimal // in the ingredient's stock unit, always positive
}

// resolveLine expands an order line into per-ingredient stock-unit
// quantities via the item's recipe. Items without a recipe (drinks
// poured from nothing the ledger tracks) resolve to no deltas.
func (StockLedger) resolveLine(ctx context.Context, store StockStore, line database.OrderLine) ([]ingredientDelta, error) {
	recipe, err := store.ListRecipeLinesByMenuItem(ctx, line.MenuItemID)
	if err != nil {
		return nil, fmt.Errorf("list recipe lines: %w", err)
	}

	var deltas []ingredientDelta
	for _, rl := range recipe {
		ing, err := store.GetIngredient(ctx, rl.IngredientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("ingredient %s: %w", rl.IngredientID, ErrIngredientNotFound)
			}
			return nil, fmt.Errorf("get ingredient: %w", err)
		}

		perServing := measure.Convert(numericToDecimal(rl.Quantity), rl.Unit, ing.StockUnit, ing.Category)
		required := perServing.Mul(decimal.NewFromInt32(line.Quantity)).Round(3)
		if required.IsZero() {
			continue
		}
		deltas = append(deltas, ingredientDelta{ingredientID: ing.ID, quantity: required})
	}
	return deltas, nil
}
