package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/enum"
)

// TableStore defines the DB methods the table state manager needs.
// Satisfied by *database.Queries.
type TableStore interface {
	TransitionTableStatus(ctx context.Context, arg database.TransitionTableStatusParams) (database.Table, error)
	CountOpenOrdersForTable(ctx context.Context, tableID uuid.UUID) (int64, error)
}

// TableStateManager keeps table occupancy consistent with order
// lifecycle. It is stateless; callers pass the store so transitions
// share the caller's transaction.
type TableStateManager struct{}

// OnOrderCreated flips the table AVAILABLE -> OCCUPIED. Only the first
// order for an available table triggers the flip; for an already
// occupied table (split orders) this is a no-op. Returns whether the
// table actually changed state.
func (TableStateManager) OnOrderCreated(ctx context.Context, store TableStore, tableID uuid.UUID) (bool, error) {
	_, err := store.TransitionTableStatus(ctx, database.TransitionTableStatusParams{
		ID:   tableID,
		From: enum.TableStatusAvailable,
		To:   enum.TableStatusOccupied,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("occupy table: %w", err)
	}
	return true, nil
}

// OnOrderClosedOrRemoved releases the table if no open (non-terminal)
// order remains for it. Callers invoke it only when the closed or
// removed order was itself non-terminal; deleting a COMPLETED order
// never re-opens a table. Returns whether the table changed state.
func (TableStateManager) OnOrderClosedOrRemoved(ctx context.Context, store TableStore, tableID uuid.UUID) (bool, error) {
	open, err := store.CountOpenOrdersForTable(ctx, tableID)
	if err != nil {
		return false, fmt.Errorf("count open orders: %w", err)
	}
	if open > 0 {
		return false, nil
	}

	_, err = store.TransitionTableStatus(ctx, database.TransitionTableStatusParams{
		ID:   tableID,
		From: enum.TableStatusOccupied,
		To:   enum.TableStatusAvailable,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already available.
			return false, nil
		}
		return false, fmt.Errorf("release table: %w", err)
	}
	return true, nil
}
