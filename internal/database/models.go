package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Table is a physical dining table. Status is mutated only through the
// table state manager; rows referenced by orders cannot be deleted.
type Table struct {
	ID        uuid.UUID
	Name      string
	Capacity  int32
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	UnitPrice   pgtype.Numeric
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ingredient stock is held in StockUnit with three decimal places.
// CurrentStock never goes below zero; the ApplyStockDelta query
// enforces this at the storage boundary.
type Ingredient struct {
	ID           uuid.UUID
	Name         string
	Category     string
	StockUnit    string
	CurrentStock pgtype.Numeric
	MinStock     pgtype.Numeric
	MaxStock     pgtype.Numeric
	UnitCost     pgtype.Numeric
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecipeLine holds the required quantity of one ingredient for one unit
// of a menu item. Unique per (menu_item_id, ingredient_id).
type RecipeLine struct {
	ID           uuid.UUID
	MenuItemID   uuid.UUID
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
	Unit         string
	CreatedAt    time.Time
}

type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	TableID        uuid.UUID
	CustomerID     pgtype.UUID
	Status         string
	Notes          pgtype.Text
	Subtotal       pgtype.Numeric
	TaxAmount      pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TotalAmount    pgtype.Numeric
	Paid           bool
	PaidAt         pgtype.Timestamptz
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderLine snapshots the menu price at order time; UnitPrice is not
// the live menu price.
type OrderLine struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	Subtotal   pgtype.Numeric
	Notes      pgtype.Text
	CreatedAt  time.Time
}

// StockMovement is an append-only ledger row. Quantity is always
// positive; the direction is carried by MovementType.
type StockMovement struct {
	ID           uuid.UUID
	IngredientID uuid.UUID
	MovementType string
	Quantity     pgtype.Numeric
	Reason       string
	ReferenceID  pgtype.UUID
	CreatedAt    time.Time
}

type Payment struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	PaymentMethod string
	Amount        pgtype.Numeric
	Status        string
	ProcessedBy   uuid.UUID
	ProcessedAt   time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Pin            pgtype.Text
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AuditLog struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Before     []byte
	After      []byte
	CreatedAt  time.Time
}
