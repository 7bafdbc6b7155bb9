package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyLines          = errors.New("lines are required")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidTableID      = errors.New("invalid table_id")
	ErrInvalidMenuItemID   = errors.New("invalid menu_item_id")
	ErrInvalidCustomerID   = errors.New("invalid customer_id")
	ErrInvalidDiscount     = errors.New("discount must be >= 0")
	ErrTableNotFound       = errors.New("table not found")
	ErrTableNotOrderable   = errors.New("table is not in an orderable state")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderLineNotFound   = errors.New("order line not found")
	ErrOrderTerminal       = errors.New("order is in a terminal status")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidPayMethod    = errors.New("invalid payment_method")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	StockStore
	TableStore

	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetNextOrderSequence(ctx context.Context, datePrefix string) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error)
	ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	GetOrderLine(ctx context.Context, arg database.GetOrderLineParams) (database.OrderLine, error)
	DeleteOrderLine(ctx context.Context, arg database.DeleteOrderLineParams) (uuid.UUID, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	DeletePaymentsByOrder(ctx context.Context, orderID uuid.UUID) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), so the
// service can bind stores to its own transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	TableID    string
	CustomerID string
	ActorID    uuid.UUID
	Notes      string
	Discount   string // decimal string, empty means zero
	Lines      []CreateOrderLineRequest
}

// CreateOrderLineRequest is a single menu item in the order.
type CreateOrderLineRequest struct {
	MenuItemID string
	Quantity   int32
	Notes      string
}

// CreateOrderResult is the created order with its lines.
type CreateOrderResult struct {
	Order        database.Order
	Lines        []database.OrderLine
	TableFlipped bool
}

// UpdateStatusRequest drives one order status transition.
type UpdateStatusRequest struct {
	OrderID       uuid.UUID
	NewStatus     string
	ActorID       uuid.UUID
	PaymentMethod string // only read on transition to COMPLETED; defaults to CASH
}

// OrderService orchestrates order lifecycle: pricing, stock
// consumption and reversal, table occupancy, payments, and the
// best-effort audit/event side effects.
type OrderService struct {
	pool     TxBeginner
	queries  OrderStore // pool-bound, for non-transactional steps
	newStore NewOrderStore
	totals   TotalsCalculator
	ledger   StockLedger
	tables   TableStateManager
	audit    AuditSink
	events   EventSink
}

func NewOrderService(pool TxBeginner, queries OrderStore, newStore NewOrderStore, totals TotalsCalculator, audit AuditSink, events EventSink) *OrderService {
	return &OrderService{
		pool:     pool,
		queries:  queries,
		newStore: newStore,
		totals:   totals,
		audit:    audit,
		events:   events,
	}
}

// CreateOrder validates, prices, persists and consumes stock for a new
// order in one transaction: if any recipe ingredient cannot cover the
// deduction the whole order is rolled back. Retries up to
// maxOrderNumberRetries times on order_number unique violations
// (concurrent transactions racing on the same daily sequence).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return nil, ErrInvalidTableID
	}

	customerID := pgtype.UUID{}
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, ErrInvalidCustomerID
		}
		customerID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	discount := decimal.Zero
	if req.Discount != "" {
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil || discount.IsNegative() {
			return nil, ErrInvalidDiscount
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req, tableID, customerID, discount)
		if err == nil {
			s.dispatchCreated(ctx, req.ActorID, result)
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks for a unique violation on the order
// number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, tableID uuid.UUID, customerID pgtype.UUID, discount decimal.Decimal) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Validate table ---
	table, err := store.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}
	if table.Status != enum.TableStatusAvailable && table.Status != enum.TableStatusOccupied {
		return nil, ErrTableNotOrderable
	}

	// --- Generate order number: YYYYMMDD + 4-digit daily sequence ---
	datePrefix := time.Now().Format("20060102")
	seq, err := store.GetNextOrderSequence(ctx, datePrefix)
	if err != nil {
		return nil, fmt.Errorf("get next order sequence: %w", err)
	}
	orderNumber := fmt.Sprintf("%s%04d", datePrefix, seq)

	// --- Validate menu items and snapshot prices ---
	type pricedLine struct {
		menuItemID uuid.UUID
		quantity   int32
		unitPrice  decimal.Decimal
		notes      string
	}
	var priced []pricedLine
	var amounts []LineAmount
	for i, line := range req.Lines {
		menuItemID, err := uuid.Parse(line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", i, ErrInvalidMenuItemID)
		}
		item, err := store.GetMenuItem(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("lines[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("lines[%d]: get menu item: %w", i, err)
		}
		if !item.IsAvailable {
			return nil, fmt.Errorf("lines[%d] (%s): %w", i, item.Name, ErrMenuItemUnavailable)
		}
		unitPrice := numericToDecimal(item.UnitPrice)
		priced = append(priced, pricedLine{
			menuItemID: menuItemID,
			quantity:   line.Quantity,
			unitPrice:  unitPrice,
			notes:      line.Notes,
		})
		amounts = append(amounts, LineAmount{UnitPrice: unitPrice, Quantity: line.Quantity})
	}

	totals := s.totals.Compute(amounts, discount)

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:    orderNumber,
		TableID:        tableID,
		CustomerID:     customerID,
		Status:         enum.OrderStatusPending,
		Notes:          notes,
		Subtotal:       decimalToNumeric(totals.Subtotal),
		TaxAmount:      decimalToNumeric(totals.Tax),
		DiscountAmount: decimalToNumeric(totals.Discount),
		TotalAmount:    decimalToNumeric(totals.Total),
		CreatedBy:      req.ActorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert lines ---
	var lines []database.OrderLine
	for _, pl := range priced {
		lineNotes := pgtype.Text{}
		if pl.notes != "" {
			lineNotes = pgtype.Text{String: pl.notes, Valid: true}
		}
		created, err := store.CreateOrderLine(ctx, database.CreateOrderLineParams{
			OrderID:    order.ID,
			MenuItemID: pl.menuItemID,
			Quantity:   pl.quantity,
			UnitPrice:  decimalToNumeric(pl.unitPrice),
			Subtotal:   decimalToNumeric(pl.unitPrice.Mul(decimal.NewFromInt32(pl.quantity))),
			Notes:      lineNotes,
		})
		if err != nil {
			return nil, fmt.Errorf("create order line: %w", err)
		}
		lines = append(lines, created)
	}

	// --- Consume stock; InsufficientStock aborts the whole order ---
	if _, err := s.ledger.ConsumeForOrderLines(ctx, store, lines, order.ID); err != nil {
		return nil, err
	}

	// --- Occupy table ---
	flipped, err := s.tables.OnOrderCreated(ctx, store, tableID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Lines: lines, TableFlipped: flipped}, nil
}

// UpdateStatus transitions an order along the lifecycle state machine.
// Completing an order marks it paid and cuts the payment record;
// cancelling refunds consumed stock best-effort. Both terminal
// transitions release the table when no open order remains on it.
func (s *OrderService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (database.Order, error) {
	if !isValidOrderStatus(req.NewStatus) {
		return database.Order{}, ErrInvalidStatus
	}

	paymentMethod := req.PaymentMethod
	if req.NewStatus == enum.OrderStatusCompleted {
		if paymentMethod == "" {
			paymentMethod = enum.PaymentMethodCash
		}
		if !isValidPaymentMethod(paymentMethod) {
			return database.Order{}, ErrInvalidPayMethod
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if err := validateStatusTransition(current.Status, req.NewStatus); err != nil {
		return database.Order{}, err
	}

	var updated database.Order
	tableReleased := false

	switch req.NewStatus {
	case enum.OrderStatusCompleted:
		updated, err = store.CompleteOrder(ctx, database.CompleteOrderParams{
			ID:         req.OrderID,
			FromStatus: current.Status,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("complete order: %w", err)
		}
		if _, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID:       updated.ID,
			PaymentMethod: paymentMethod,
			Amount:        updated.TotalAmount,
			Status:        enum.PaymentStatusCompleted,
			ProcessedBy:   req.ActorID,
		}); err != nil {
			return database.Order{}, fmt.Errorf("create payment: %w", err)
		}
		tableReleased, err = s.tables.OnOrderClosedOrRemoved(ctx, store, updated.TableID)
		if err != nil {
			return database.Order{}, err
		}

	case enum.OrderStatusCancelled:
		updated, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:         req.OrderID,
			Status:     enum.OrderStatusCancelled,
			FromStatus: current.Status,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("cancel order: %w", err)
		}
		// Return the consumed ingredients to stock. Best-effort: a
		// failing ingredient must not block the cancellation.
		lines, err := store.ListOrderLinesByOrder(ctx, updated.ID)
		if err != nil {
			log.Printf("ERROR: list lines for cancelled order %s: %v", updated.ID, err)
		} else {
			s.ledger.RefundForOrder(ctx, store, lines, enum.StockReasonOrderCancelled)
		}
		tableReleased, err = s.tables.OnOrderClosedOrRemoved(ctx, store, updated.TableID)
		if err != nil {
			return database.Order{}, err
		}

	default:
		updated, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:         req.OrderID,
			Status:     req.NewStatus,
			FromStatus: current.Status,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("update order status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.audit.Record(ctx, req.ActorID, "order.status_changed", "order", updated.ID,
		map[string]string{"status": current.Status}, map[string]string{"status": updated.Status})
	s.events.Publish(TopicOrderStatusChanged, orderEvent(updated))
	if tableReleased {
		s.events.Publish(TopicTableStatusChanged, TableEvent{TableID: updated.TableID, Status: enum.TableStatusAvailable})
	}

	return updated, nil
}

// RemoveLine deletes one line from a live order, refunds its stock and
// recomputes the order totals.
func (s *OrderService) RemoveLine(ctx context.Context, orderID, lineID, actorID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if enum.IsTerminalOrderStatus(order.Status) {
		return database.Order{}, ErrOrderTerminal
	}

	line, err := store.GetOrderLine(ctx, database.GetOrderLineParams{ID: lineID, OrderID: orderID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderLineNotFound
		}
		return database.Order{}, fmt.Errorf("get order line: %w", err)
	}

	// Refund before delete; best-effort so a ledger hiccup cannot
	// strand the line.
	s.ledger.RefundForOrderLine(ctx, store, line, enum.StockReasonLineRemoved)

	if _, err := store.DeleteOrderLine(ctx, database.DeleteOrderLineParams{ID: lineID, OrderID: orderID}); err != nil {
		return database.Order{}, fmt.Errorf("delete order line: %w", err)
	}

	remaining, err := store.ListOrderLinesByOrder(ctx, orderID)
	if err != nil {
		return database.Order{}, fmt.Errorf("list order lines: %w", err)
	}
	amounts := make([]LineAmount, len(remaining))
	for i, l := range remaining {
		amounts[i] = LineAmount{UnitPrice: numericToDecimal(l.UnitPrice), Quantity: l.Quantity}
	}
	totals := s.totals.Compute(amounts, numericToDecimal(order.DiscountAmount))

	updated, err := store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:             orderID,
		Subtotal:       decimalToNumeric(totals.Subtotal),
		TaxAmount:      decimalToNumeric(totals.Tax),
		DiscountAmount: decimalToNumeric(totals.Discount),
		TotalAmount:    decimalToNumeric(totals.Total),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update order totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.audit.Record(ctx, actorID, "order.line_removed", "order", orderID,
		map[string]any{"line_id": lineID, "menu_item_id": line.MenuItemID, "quantity": line.Quantity}, nil)
	s.events.Publish(TopicOrderUpdated, orderEvent(updated))

	return updated, nil
}

// Delete removes an order outright. Sub-steps are deliberately
// best-effort and independently logged so the order record itself is
// always removable: a failed stock refund or payment cleanup must not
// leave the order stuck.
func (s *OrderService) Delete(ctx context.Context, orderID, actorID uuid.UUID) error {
	order, err := s.queries.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}

	// A completed, paid order has consumed stock that was never
	// reversed; return it. Cancelled orders were already refunded at
	// cancellation time.
	if order.Status == enum.OrderStatusCompleted && order.Paid {
		lines, err := s.queries.ListOrderLinesByOrder(ctx, orderID)
		if err != nil {
			log.Printf("ERROR: list lines for deleted order %s: %v", orderID, err)
		} else {
			s.ledger.RefundForOrder(ctx, s.queries, lines, enum.StockReasonOrderDeleted)
		}
	}

	if err := s.queries.DeletePaymentsByOrder(ctx, orderID); err != nil {
		log.Printf("ERROR: delete payments for order %s: %v", orderID, err)
	}

	if _, err := s.queries.DeleteOrder(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	// Deleting an open order may free the table; deleting a COMPLETED
	// order never re-opens it.
	if !enum.IsTerminalOrderStatus(order.Status) {
		released, err := s.tables.OnOrderClosedOrRemoved(ctx, s.queries, order.TableID)
		if err != nil {
			log.Printf("ERROR: release table %s after order delete: %v", order.TableID, err)
		} else if released {
			s.events.Publish(TopicTableStatusChanged, TableEvent{TableID: order.TableID, Status: enum.TableStatusAvailable})
		}
	}

	s.audit.Record(ctx, actorID, "order.deleted", "order", orderID, orderEvent(order), nil)
	s.events.Publish(TopicOrderUpdated, orderEvent(order))
	return nil
}

func (s *OrderService) dispatchCreated(ctx context.Context, actorID uuid.UUID, result *CreateOrderResult) {
	s.audit.Record(ctx, actorID, "order.created", "order", result.Order.ID, nil, orderEvent(result.Order))
	s.events.Publish(TopicOrderCreated, orderEvent(result.Order))
	if result.TableFlipped {
		s.events.Publish(TopicTableStatusChanged, TableEvent{
			TableID: result.Order.TableID,
			Status:  enum.TableStatusOccupied,
		})
	}
}

func orderEvent(o database.Order) OrderEvent {
	return OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		TableID:     o.TableID,
		Status:      o.Status,
		Total:       numericToDecimal(o.TotalAmount).StringFixed(2),
	}
}

// --- Status machine ---

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusConfirmed, enum.OrderStatusPreparing,
		enum.OrderStatusReady, enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return true
	}
	return false
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodCard,
		enum.PaymentMethodBankTransfer, enum.PaymentMethodQRIS:
		return true
	}
	return false
}

// allowedTransitions defines the lifecycle state machine. CANCELLED is
// reachable from every non-terminal state; COMPLETED and CANCELLED are
// terminal.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusConfirmed, enum.OrderStatusCancelled},
	enum.OrderStatusConfirmed: {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
}

func validateStatusTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: cannot transition from %s", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
}
