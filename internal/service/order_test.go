package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// orderFixture is a small Vietnamese menu: phở consumes beef through a
// recipe, iced tea has no recipe at all.
type orderFixture struct {
	store *fakeStore
	svc   *OrderService
	table database.Table
	pho   database.MenuItem
	tea   database.MenuItem
	beef  database.Ingredient
	actor uuid.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	store := newFakeStore()
	f := &orderFixture{store: store, svc: newTestService(store), actor: uuid.New()}
	f.table = store.addTable(enum.TableStatusAvailable)
	f.pho = store.addMenuItem("Phở bò", "45000", true)
	f.tea = store.addMenuItem("Trà đá", "5000", true)
	f.beef = store.addIngredient("Beef brisket", enum.IngredientCategorySolid, "kg", "5")
	store.addRecipeLine(f.pho.ID, f.beef.ID, "200", "g")
	return f
}

// createOrder places the standard two-line order: 2 phở + 1 trà đá.
func (f *orderFixture) createOrder(t *testing.T) *CreateOrderResult {
	t.Helper()
	result, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableID: f.table.ID.String(),
		ActorID: f.actor,
		Lines: []CreateOrderLineRequest{
			{MenuItemID: f.pho.ID.String(), Quantity: 2},
			{MenuItemID: f.tea.ID.String(), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return result
}

// advance walks an order through the given statuses in sequence.
func (f *orderFixture) advance(t *testing.T, orderID uuid.UUID, statuses ...string) database.Order {
	t.Helper()
	var order database.Order
	var err error
	for _, status := range statuses {
		order, err = f.svc.UpdateStatus(context.Background(), UpdateStatusRequest{
			OrderID: orderID, NewStatus: status, ActorID: f.actor,
		})
		if err != nil {
			t.Fatalf("UpdateStatus to %s: %v", status, err)
		}
	}
	return order
}

func TestCreateOrder(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)

	order := result.Order
	if order.Status != enum.OrderStatusPending {
		t.Errorf("status = %q, want PENDING", order.Status)
	}
	wantNumber := time.Now().Format("20060102") + "0001"
	if order.OrderNumber != wantNumber {
		t.Errorf("order number = %q, want %q", order.OrderNumber, wantNumber)
	}
	if !numericEquals(order.Subtotal, "95000") {
		t.Errorf("subtotal = %v, want 95000", order.Subtotal)
	}
	if !numericEquals(order.TaxAmount, "9500") {
		t.Errorf("tax = %v, want 9500", order.TaxAmount)
	}
	if !numericEquals(order.TotalAmount, "104500") {
		t.Errorf("total = %v, want 104500", order.TotalAmount)
	}

	if len(result.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(result.Lines))
	}
	if !numericEquals(result.Lines[0].UnitPrice, "45000") {
		t.Errorf("line 0 unit price = %v, want 45000", result.Lines[0].UnitPrice)
	}
	if !numericEquals(result.Lines[0].Subtotal, "90000") {
		t.Errorf("line 0 subtotal = %v, want 90000", result.Lines[0].Subtotal)
	}

	// 2 phở at 200 g each deducts 0.4 kg of beef.
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("4.6")) {
		t.Errorf("beef stock = %s, want 4.6", f.store.stockOf(f.beef.ID))
	}
	movements := f.store.movementsFor(f.beef.ID)
	if len(movements) != 1 || movements[0].Reason != enum.StockReasonOrderConsumption {
		t.Errorf("movements = %v, want one order-consumption", movements)
	}

	if !result.TableFlipped {
		t.Error("expected the table to flip to OCCUPIED")
	}
	if got := f.store.tables[f.table.ID].Status; got != enum.TableStatusOccupied {
		t.Errorf("table status = %q, want OCCUPIED", got)
	}
}

func TestCreateOrderSecondOrderOnOccupiedTable(t *testing.T) {
	f := newOrderFixture(t)
	f.createOrder(t)

	result, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableID: f.table.ID.String(),
		ActorID: f.actor,
		Lines:   []CreateOrderLineRequest{{MenuItemID: f.tea.ID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	wantNumber := time.Now().Format("20060102") + "0002"
	if result.Order.OrderNumber != wantNumber {
		t.Errorf("order number = %q, want %q", result.Order.OrderNumber, wantNumber)
	}
	if result.TableFlipped {
		t.Error("occupied table must not flip again")
	}
}

func TestCreateOrderWithDiscount(t *testing.T) {
	f := newOrderFixture(t)
	result, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableID:  f.table.ID.String(),
		ActorID:  f.actor,
		Discount: "10000",
		Lines:    []CreateOrderLineRequest{{MenuItemID: f.pho.ID.String(), Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	// 90000 + 9000 tax - 10000 discount
	if !numericEquals(result.Order.TotalAmount, "89000") {
		t.Errorf("total = %v, want 89000", result.Order.TotalAmount)
	}
	if !numericEquals(result.Order.DiscountAmount, "10000") {
		t.Errorf("discount = %v, want 10000", result.Order.DiscountAmount)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	phoLine := []CreateOrderLineRequest{{MenuItemID: f.pho.ID.String(), Quantity: 1}}

	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr error
	}{
		{"no lines", CreateOrderRequest{TableID: f.table.ID.String()}, ErrEmptyLines},
		{"zero quantity", CreateOrderRequest{TableID: f.table.ID.String(),
			Lines: []CreateOrderLineRequest{{MenuItemID: f.pho.ID.String(), Quantity: 0}}}, ErrInvalidQuantity},
		{"negative quantity", CreateOrderRequest{TableID: f.table.ID.String(),
			Lines: []CreateOrderLineRequest{{MenuItemID: f.pho.ID.String(), Quantity: -1}}}, ErrInvalidQuantity},
		{"malformed table id", CreateOrderRequest{TableID: "not-a-uuid", Lines: phoLine}, ErrInvalidTableID},
		{"unknown table", CreateOrderRequest{TableID: uuid.NewString(), Lines: phoLine}, ErrTableNotFound},
		{"malformed customer id", CreateOrderRequest{TableID: f.table.ID.String(),
			CustomerID: "nope", Lines: phoLine}, ErrInvalidCustomerID},
		{"negative discount", CreateOrderRequest{TableID: f.table.ID.String(),
			Discount: "-5", Lines: phoLine}, ErrInvalidDiscount},
		{"malformed discount", CreateOrderRequest{TableID: f.table.ID.String(),
			Discount: "abc", Lines: phoLine}, ErrInvalidDiscount},
		{"malformed menu item id", CreateOrderRequest{TableID: f.table.ID.String(),
			Lines: []CreateOrderLineRequest{{MenuItemID: "nope", Quantity: 1}}}, ErrInvalidMenuItemID},
		{"unknown menu item", CreateOrderRequest{TableID: f.table.ID.String(),
			Lines: []CreateOrderLineRequest{{MenuItemID: uuid.NewString(), Quantity: 1}}}, ErrMenuItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(f.store.orders) != 0 {
		t.Errorf("%d orders persisted by rejected requests", len(f.store.orders))
	}
}

func TestCreateOrderUnavailableMenuItem(t *testing.T) {
	f := newOrderFixture(t)
	offMenu := f.store.addMenuItem("Bún chả", "50000", false)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableID: f.table.ID.String(),
		Lines:   []CreateOrderLineRequest{{MenuItemID: offMenu.ID.String(), Quantity: 1}},
	})
	if !errors.Is(err, ErrMenuItemUnavailable) {
		t.Fatalf("err = %v, want ErrMenuItemUnavailable", err)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)

	// 100 phở needs 20 kg of beef; only 5 in stock.
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableID: f.table.ID.String(),
		ActorID: f.actor,
		Lines:   []CreateOrderLineRequest{{MenuItemID: f.pho.ID.String(), Quantity: 100}},
	})

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want *InsufficientStockError", err)
	}
	if insufficient.IngredientName != "Beef brisket" {
		t.Errorf("ingredient = %q", insufficient.IngredientName)
	}
	if !insufficient.Required.Equal(decimal.RequireFromString("20")) {
		t.Errorf("required = %s, want 20", insufficient.Required)
	}
	if !insufficient.Available.Equal(decimal.RequireFromString("5")) {
		t.Errorf("available = %s, want 5", insufficient.Available)
	}

	// Whole transaction rolled back: no order, no stock change, table untouched.
	if len(f.store.orders) != 0 {
		t.Errorf("%d orders persisted, want 0", len(f.store.orders))
	}
	if len(f.store.lines) != 0 {
		t.Errorf("%d lines persisted, want 0", len(f.store.lines))
	}
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("5")) {
		t.Errorf("beef stock = %s, want 5", f.store.stockOf(f.beef.ID))
	}
	if got := f.store.tables[f.table.ID].Status; got != enum.TableStatusAvailable {
		t.Errorf("table status = %q, want AVAILABLE", got)
	}
	if len(f.store.movements) != 0 {
		t.Errorf("%d movements persisted, want 0", len(f.store.movements))
	}
}

func TestCreateOrderRetriesNumberConflict(t *testing.T) {
	f := newOrderFixture(t)
	f.store.createOrderConflicts = 2

	result := f.createOrder(t)
	wantNumber := time.Now().Format("20060102") + "0001"
	if result.Order.OrderNumber != wantNumber {
		t.Errorf("order number = %q, want %q", result.Order.OrderNumber, wantNumber)
	}
	// Only the winning attempt's stock deduction survives.
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("4.6")) {
		t.Errorf("beef stock = %s, want 4.6", f.store.stockOf(f.beef.ID))
	}
}

func TestCreateOrderGivesUpAfterRetries(t *testing.T) {
	f := newOrderFixture(t)
	f.store.createOrderConflicts = maxOrderNumberRetries

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableID: f.table.ID.String(),
		Lines:   []CreateOrderLineRequest{{MenuItemID: f.tea.ID.String(), Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !isOrderNumberConflict(err) {
		t.Errorf("err = %v, want an order number conflict", err)
	}
	if len(f.store.orders) != 0 {
		t.Errorf("%d orders persisted, want 0", len(f.store.orders))
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)

	order := f.advance(t, result.Order.ID,
		enum.OrderStatusConfirmed, enum.OrderStatusPreparing, enum.OrderStatusReady)
	if order.Status != enum.OrderStatusReady {
		t.Fatalf("status = %q, want READY", order.Status)
	}

	completed, err := f.svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		OrderID:       result.Order.ID,
		NewStatus:     enum.OrderStatusCompleted,
		ActorID:       f.actor,
		PaymentMethod: enum.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("UpdateStatus to COMPLETED: %v", err)
	}
	if completed.Status != enum.OrderStatusCompleted {
		t.Errorf("status = %q, want COMPLETED", completed.Status)
	}
	if !completed.Paid {
		t.Error("completed order must be paid")
	}
	if !completed.PaidAt.Valid {
		t.Error("paid_at must be set")
	}

	payments := f.store.payments[result.Order.ID]
	if len(payments) != 1 {
		t.Fatalf("got %d payments, want 1", len(payments))
	}
	if payments[0].PaymentMethod != enum.PaymentMethodBankTransfer {
		t.Errorf("payment method = %q, want BANK_TRANSFER", payments[0].PaymentMethod)
	}
	if !numericEquals(payments[0].Amount, "104500") {
		t.Errorf("payment amount = %v, want 104500", payments[0].Amount)
	}
	if payments[0].ProcessedBy != f.actor {
		t.Errorf("processed by = %s, want %s", payments[0].ProcessedBy, f.actor)
	}

	// Completion settled the last open order on the table.
	if got := f.store.tables[f.table.ID].Status; got != enum.TableStatusAvailable {
		t.Errorf("table status = %q, want AVAILABLE", got)
	}
	// Completion never touches stock; consumption happened at creation.
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("4.6")) {
		t.Errorf("beef stock = %s, want 4.6", f.store.stockOf(f.beef.ID))
	}
}

func TestUpdateStatusDefaultsPaymentToCash(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)
	f.advance(t, result.Order.ID,
		enum.OrderStatusConfirmed, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusCompleted)

	payments := f.store.payments[result.Order.ID]
	if len(payments) != 1 || payments[0].PaymentMethod != enum.PaymentMethodCash {
		t.Fatalf("payments = %v, want one CASH payment", payments)
	}
}

func TestUpdateStatusCancelRefundsStock(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)

	cancelled, err := f.svc.UpdateStatus(context.Background(), UpdateStatusRequest{
		OrderID:   result.Order.ID,
		NewStatus: enum.OrderStatusCancelled,
		ActorID:   f.actor,
	})
	if err != nil {
		t.Fatalf("UpdateStatus to CANCELLED: %v", err)
	}
	if cancelled.Status != enum.OrderStatusCancelled {
		t.Errorf("status = %q, want CANCELLED", cancelled.Status)
	}

	// Beef back to its starting level with a refund movement on record.
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("5")) {
		t.Errorf("beef stock = %s, want 5", f.store.stockOf(f.beef.ID))
	}
	var refunds int
	for _, mv := range f.store.movementsFor(f.beef.ID) {
		if mv.Reason == enum.StockReasonOrderCancelled && mv.MovementType == enum.StockMovementIn {
			refunds++
		}
	}
	if refunds != 1 {
		t.Errorf("got %d cancellation refunds, want 1", refunds)
	}
	if got := f.store.tables[f.table.ID].Status; got != enum.TableStatusAvailable {
		t.Errorf("table status = %q, want AVAILABLE", got)
	}
	if len(f.store.payments[result.Order.ID]) != 0 {
		t.Errorf("cancelled order has payments")
	}
}

func TestUpdateStatusRejectsInvalidTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	t.Run("skipping a stage", func(t *testing.T) {
		result := f.createOrder(t)
		_, err := f.svc.UpdateStatus(ctx, UpdateStatusRequest{
			OrderID: result.Order.ID, NewStatus: enum.OrderStatusReady,
		})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("out of a terminal status", func(t *testing.T) {
		result := f.createOrder(t)
		f.advance(t, result.Order.ID, enum.OrderStatusCancelled)
		_, err := f.svc.UpdateStatus(ctx, UpdateStatusRequest{
			OrderID: result.Order.ID, NewStatus: enum.OrderStatusConfirmed,
		})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		result := f.createOrder(t)
		_, err := f.svc.UpdateStatus(ctx, UpdateStatusRequest{
			OrderID: result.Order.ID, NewStatus: "SHIPPED",
		})
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("err = %v, want ErrInvalidStatus", err)
		}
	})

	t.Run("unknown payment method", func(t *testing.T) {
		result := f.createOrder(t)
		f.advance(t, result.Order.ID,
			enum.OrderStatusConfirmed, enum.OrderStatusPreparing, enum.OrderStatusReady)
		_, err := f.svc.UpdateStatus(ctx, UpdateStatusRequest{
			OrderID: result.Order.ID, NewStatus: enum.OrderStatusCompleted, PaymentMethod: "BARTER",
		})
		if !errors.Is(err, ErrInvalidPayMethod) {
			t.Errorf("err = %v, want ErrInvalidPayMethod", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, UpdateStatusRequest{
			OrderID: uuid.New(), NewStatus: enum.OrderStatusConfirmed,
		})
		if !errors.Is(err, ErrOrderNotFound) {
			t.Errorf("err = %v, want ErrOrderNotFound", err)
		}
	})
}

func TestRemoveLine(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)

	var teaLine database.OrderLine
	for _, l := range result.Lines {
		if l.MenuItemID == f.tea.ID {
			teaLine = l
		}
	}
	movementsBefore := len(f.store.movements)

	updated, err := f.svc.RemoveLine(context.Background(), result.Order.ID, teaLine.ID, f.actor)
	if err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}

	// 2 phở remain: 90000 + 9000 tax.
	if !numericEquals(updated.Subtotal, "90000") {
		t.Errorf("subtotal = %v, want 90000", updated.Subtotal)
	}
	if !numericEquals(updated.TaxAmount, "9000") {
		t.Errorf("tax = %v, want 9000", updated.TaxAmount)
	}
	if !numericEquals(updated.TotalAmount, "99000") {
		t.Errorf("total = %v, want 99000", updated.TotalAmount)
	}
	if _, ok := f.store.lines[teaLine.ID]; ok {
		t.Error("removed line still present")
	}
	// Trà đá has no recipe, so removing it moves no stock.
	if len(f.store.movements) != movementsBefore {
		t.Errorf("movements went %d -> %d, want unchanged", movementsBefore, len(f.store.movements))
	}
}

func TestRemoveLineRefundsRecipeStock(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)

	var phoLine database.OrderLine
	for _, l := range result.Lines {
		if l.MenuItemID == f.pho.ID {
			phoLine = l
		}
	}

	if _, err := f.svc.RemoveLine(context.Background(), result.Order.ID, phoLine.ID, f.actor); err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("5")) {
		t.Errorf("beef stock = %s, want 5", f.store.stockOf(f.beef.ID))
	}
}

func TestRemoveLineGuards(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	t.Run("terminal order", func(t *testing.T) {
		result := f.createOrder(t)
		f.advance(t, result.Order.ID, enum.OrderStatusCancelled)
		_, err := f.svc.RemoveLine(ctx, result.Order.ID, result.Lines[0].ID, f.actor)
		if !errors.Is(err, ErrOrderTerminal) {
			t.Errorf("err = %v, want ErrOrderTerminal", err)
		}
	})

	t.Run("unknown line", func(t *testing.T) {
		result := f.createOrder(t)
		_, err := f.svc.RemoveLine(ctx, result.Order.ID, uuid.New(), f.actor)
		if !errors.Is(err, ErrOrderLineNotFound) {
			t.Errorf("err = %v, want ErrOrderLineNotFound", err)
		}
	})

	t.Run("line from another order", func(t *testing.T) {
		first := f.createOrder(t)
		second := f.createOrder(t)
		_, err := f.svc.RemoveLine(ctx, second.Order.ID, first.Lines[0].ID, f.actor)
		if !errors.Is(err, ErrOrderLineNotFound) {
			t.Errorf("err = %v, want ErrOrderLineNotFound", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.RemoveLine(ctx, uuid.New(), uuid.New(), f.actor)
		if !errors.Is(err, ErrOrderNotFound) {
			t.Errorf("err = %v, want ErrOrderNotFound", err)
		}
	})
}

func TestDeleteCompletedOrderRestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)
	f.advance(t, result.Order.ID,
		enum.OrderStatusConfirmed, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusCompleted)

	if err := f.svc.Delete(context.Background(), result.Order.ID, f.actor); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := f.store.orders[result.Order.ID]; ok {
		t.Error("order still present")
	}
	if len(f.store.payments[result.Order.ID]) != 0 {
		t.Error("payments still present")
	}
	// The completed order's consumption is reversed on deletion.
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("5")) {
		t.Errorf("beef stock = %s, want 5", f.store.stockOf(f.beef.ID))
	}
	var refunds int
	for _, mv := range f.store.movementsFor(f.beef.ID) {
		if mv.Reason == enum.StockReasonOrderDeleted {
			refunds++
		}
	}
	if refunds != 1 {
		t.Errorf("got %d deletion refunds, want 1", refunds)
	}
	// The table was already freed at completion and stays that way.
	if got := f.store.tables[f.table.ID].Status; got != enum.TableStatusAvailable {
		t.Errorf("table status = %q, want AVAILABLE", got)
	}
}

func TestDeleteCancelledOrderDoesNotRefundTwice(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)
	f.advance(t, result.Order.ID, enum.OrderStatusCancelled)

	// Cancellation already returned the beef.
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("5")) {
		t.Fatalf("beef stock = %s after cancel, want 5", f.store.stockOf(f.beef.ID))
	}

	if err := f.svc.Delete(context.Background(), result.Order.ID, f.actor); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !f.store.stockOf(f.beef.ID).Equal(decimal.RequireFromString("5")) {
		t.Errorf("beef stock = %s after delete, want 5", f.store.stockOf(f.beef.ID))
	}
}

func TestDeleteOpenOrderReleasesTable(t *testing.T) {
	f := newOrderFixture(t)
	result := f.createOrder(t)

	if err := f.svc.Delete(context.Background(), result.Order.ID, f.actor); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := f.store.tables[f.table.ID].Status; got != enum.TableStatusAvailable {
		t.Errorf("table status = %q, want AVAILABLE", got)
	}
	if err := f.svc.Delete(context.Background(), result.Order.ID, f.actor); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("second delete err = %v, want ErrOrderNotFound", err)
	}
}

// eventRecorder captures published topics for assertion.
type eventRecorder struct {
	events []struct {
		Topic   string
		Payload any
	}
}

func (r *eventRecorder) Publish(topic string, payload any) {
	r.events = append(r.events, struct {
		Topic   string
		Payload any
	}{topic, payload})
}

func (r *eventRecorder) topics() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.Topic)
	}
	return out
}

func TestCreateOrderPublishesEvents(t *testing.T) {
	store := newFakeStore()
	table := store.addTable(enum.TableStatusAvailable)
	tea := store.addMenuItem("Trà đá", "5000", true)
	recorder := &eventRecorder{}

	svc := NewOrderService(
		&fakeTxBeginner{store: store},
		store,
		func(db database.DBTX) OrderStore { return store },
		NewTotalsCalculator(decimal.NewFromFloat(0.10)),
		NopAuditSink{},
		recorder,
	)

	result, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableID: table.ID.String(),
		Lines:   []CreateOrderLineRequest{{MenuItemID: tea.ID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	want := []string{TopicOrderCreated, TopicTableStatusChanged}
	got := recorder.topics()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("topics = %v, want %v", got, want)
	}
	ev, ok := recorder.events[0].Payload.(OrderEvent)
	if !ok {
		t.Fatalf("payload type %T, want OrderEvent", recorder.events[0].Payload)
	}
	if ev.OrderID != result.Order.ID || ev.Status != enum.OrderStatusPending {
		t.Errorf("event = %+v", ev)
	}
}
