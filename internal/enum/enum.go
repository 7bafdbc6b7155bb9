package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	TableStatusAvailable = "AVAILABLE"
	TableStatusOccupied  = "OCCUPIED"
)

const (
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusRefunded  = "REFUNDED"
)

const (
	StockMovementIn  = "IN"
	StockMovementOut = "OUT"
)

// ── Reference data enums (CHECK constrained in DB) ──

// IngredientCategory selects the unit conversion table for an ingredient.
// Stored explicitly on the ingredient row; never inferred from its name.
const (
	IngredientCategorySolid   = "SOLID"
	IngredientCategoryLiquid  = "LIQUID"
	IngredientCategoryCounted = "COUNTED"
)

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
	UserRoleWaiter  = "WAITER"
	UserRoleKitchen = "KITCHEN"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash         = "CASH"
	PaymentMethodCard         = "CARD"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
	PaymentMethodQRIS         = "QRIS"
)

// Stock movement reasons written by the ledger. Manual adjustments may
// carry free-form reasons.
const (
	StockReasonOrderConsumption = "order-consumption"
	StockReasonLineRemoved      = "refund:line-removed"
	StockReasonOrderCancelled   = "refund:order-cancelled"
	StockReasonOrderDeleted     = "refund:order-deleted"
	StockReasonManualAdjustment = "manual-adjustment"
	StockReasonInitialStock     = "initial-stock"
)

// IsTerminalOrderStatus reports whether the status permits no further
// mutation of the order's lines.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}
