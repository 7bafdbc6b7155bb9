package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory OrderStore. fakeTxBeginner snapshots it on
// Begin and restores on Rollback, so transactional all-or-nothing
// behavior is observable in tests.
type fakeStore struct {
	tables      map[uuid.UUID]database.Table
	menuItems   map[uuid.UUID]database.MenuItem
	ingredients map[uuid.UUID]database.Ingredient
	recipes     map[uuid.UUID][]database.RecipeLine
	orders      map[uuid.UUID]database.Order
	lines       map[uuid.UUID]database.OrderLine
	payments    map[uuid.UUID][]database.Payment
	movements   []database.StockMovement

	clock int64

	// Failure injection.
	createOrderConflicts int                // fail this many CreateOrder calls with 23505
	brokenIngredients    map[uuid.UUID]bool // ApplyStockDelta fails hard for these
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:            make(map[uuid.UUID]database.Table),
		menuItems:         make(map[uuid.UUID]database.MenuItem),
		ingredients:       make(map[uuid.UUID]database.Ingredient),
		recipes:           make(map[uuid.UUID][]database.RecipeLine),
		orders:            make(map[uuid.UUID]database.Order),
		lines:             make(map[uuid.UUID]database.OrderLine),
		payments:          make(map[uuid.UUID][]database.Payment),
		brokenIngredients: make(map[uuid.UUID]bool),
	}
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	exp, _ := decimal.NewFromString(expected)
	return numericToDecimal(n).Equal(exp)
}

func (f *fakeStore) tick() time.Time {
	f.clock++
	return time.Unix(f.clock, 0)
}

// --- seeding helpers ---

func (f *fakeStore) addTable(status string) database.Table {
	t := database.Table{ID: uuid.New(), Name: "T" + strconv.FormatInt(f.clock, 10), Capacity: 4, Status: status}
	f.tables[t.ID] = t
	return t
}

func (f *fakeStore) addMenuItem(name, price string, available bool) database.MenuItem {
	m := database.MenuItem{ID: uuid.New(), Name: name, UnitPrice: makeNumeric(price), IsAvailable: available}
	f.menuItems[m.ID] = m
	return m
}

func (f *fakeStore) addIngredient(name, category, unit, stock string) database.Ingredient {
	i := database.Ingredient{
		ID: uuid.New(), Name: name, Category: category, StockUnit: unit,
		CurrentStock: makeNumeric(stock),
	}
	f.ingredients[i.ID] = i
	return i
}

func (f *fakeStore) addRecipeLine(menuItemID, ingredientID uuid.UUID, qty, unit string) database.RecipeLine {
	rl := database.RecipeLine{
		ID: uuid.New(), MenuItemID: menuItemID, IngredientID: ingredientID,
		Quantity: makeNumeric(qty), Unit: unit,
	}
	f.recipes[menuItemID] = append(f.recipes[menuItemID], rl)
	return rl
}

func (f *fakeStore) stockOf(id uuid.UUID) decimal.Decimal {
	return numericToDecimal(f.ingredients[id].CurrentStock)
}

func (f *fakeStore) movementsFor(id uuid.UUID) []database.StockMovement {
	var out []database.StockMovement
	for _, m := range f.movements {
		if m.IngredientID == id {
			out = append(out, m)
		}
	}
	return out
}

// --- StockStore ---

func (f *fakeStore) GetIngredient(_ context.Context, id uuid.UUID) (database.Ingredient, error) {
	i, ok := f.ingredients[id]
	if !ok {
		return database.Ingredient{}, pgx.ErrNoRows
	}
	return i, nil
}

func (f *fakeStore) ApplyStockDelta(_ context.Context, arg database.ApplyStockDeltaParams) (database.Ingredient, error) {
	if f.brokenIngredients[arg.ID] {
		return database.Ingredient{}, &pgconn.PgError{Code: "57P01", Message: "connection lost"}
	}
	i, ok := f.ingredients[arg.ID]
	if !ok {
		return database.Ingredient{}, pgx.ErrNoRows
	}
	next := numericToDecimal(i.CurrentStock).Add(numericToDecimal(arg.Delta)).Round(3)
	if next.IsNegative() {
		return database.Ingredient{}, pgx.ErrNoRows
	}
	i.CurrentStock = makeNumeric(next.String())
	f.ingredients[arg.ID] = i
	return i, nil
}

func (f *fakeStore) CreateStockMovement(_ context.Context, arg database.CreateStockMovementParams) (database.StockMovement, error) {
	m := database.StockMovement{
		ID: uuid.New(), IngredientID: arg.IngredientID, MovementType: arg.MovementType,
		Quantity: arg.Quantity, Reason: arg.Reason, ReferenceID: arg.ReferenceID,
		CreatedAt: f.tick(),
	}
	f.movements = append(f.movements, m)
	return m, nil
}

func (f *fakeStore) ListRecipeLinesByMenuItem(_ context.Context, menuItemID uuid.UUID) ([]database.RecipeLine, error) {
	return f.recipes[menuItemID], nil
}

// --- TableStore ---

func (f *fakeStore) TransitionTableStatus(_ context.Context, arg database.TransitionTableStatusParams) (database.Table, error) {
	t, ok := f.tables[arg.ID]
	if !ok || t.Status != arg.From {
		return database.Table{}, pgx.ErrNoRows
	}
	t.Status = arg.To
	f.tables[arg.ID] = t
	return t, nil
}

func (f *fakeStore) CountOpenOrdersForTable(_ context.Context, tableID uuid.UUID) (int64, error) {
	var count int64
	for _, o := range f.orders {
		if o.TableID == tableID && !enum.IsTerminalOrderStatus(o.Status) {
			count++
		}
	}
	return count, nil
}

// --- OrderStore ---

func (f *fakeStore) GetTable(_ context.Context, id uuid.UUID) (database.Table, error) {
	t, ok := f.tables[id]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeStore) GetMenuItem(_ context.Context, id uuid.UUID) (database.MenuItem, error) {
	m, ok := f.menuItems[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakeStore) GetNextOrderSequence(_ context.Context, datePrefix string) (int32, error) {
	max := 0
	for _, o := range f.orders {
		if strings.HasPrefix(o.OrderNumber, datePrefix) && len(o.OrderNumber) >= 4 {
			if n, err := strconv.Atoi(o.OrderNumber[len(o.OrderNumber)-4:]); err == nil && n > max {
				max = n
			}
		}
	}
	return int32(max) + 1, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if f.createOrderConflicts > 0 {
		f.createOrderConflicts--
		return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	}
	for _, o := range f.orders {
		if o.OrderNumber == arg.OrderNumber {
			return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
		}
	}
	now := f.tick()
	o := database.Order{
		ID: uuid.New(), OrderNumber: arg.OrderNumber, TableID: arg.TableID,
		CustomerID: arg.CustomerID, Status: arg.Status, Notes: arg.Notes,
		Subtotal: arg.Subtotal, TaxAmount: arg.TaxAmount,
		DiscountAmount: arg.DiscountAmount, TotalAmount: arg.TotalAmount,
		CreatedBy: arg.CreatedBy, CreatedAt: now, UpdatedAt: now,
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) CreateOrderLine(_ context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error) {
	l := database.OrderLine{
		ID: uuid.New(), OrderID: arg.OrderID, MenuItemID: arg.MenuItemID,
		Quantity: arg.Quantity, UnitPrice: arg.UnitPrice, Subtotal: arg.Subtotal,
		Notes: arg.Notes, CreatedAt: f.tick(),
	}
	f.lines[l.ID] = l
	return l, nil
}

func (f *fakeStore) ListOrderLinesByOrder(_ context.Context, orderID uuid.UUID) ([]database.OrderLine, error) {
	var out []database.OrderLine
	for _, l := range f.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	// insertion order
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return f.GetOrder(ctx, id)
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != arg.FromStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.UpdatedAt = f.tick()
	f.orders[arg.ID] = o
	return o, nil
}

func (f *fakeStore) CompleteOrder(_ context.Context, arg database.CompleteOrderParams) (database.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != arg.FromStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	now := f.tick()
	o.Status = enum.OrderStatusCompleted
	o.Paid = true
	o.PaidAt = pgtype.Timestamptz{Time: now, Valid: true}
	o.UpdatedAt = now
	f.orders[arg.ID] = o
	return o, nil
}

func (f *fakeStore) UpdateOrderTotals(_ context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Subtotal = arg.Subtotal
	o.TaxAmount = arg.TaxAmount
	o.DiscountAmount = arg.DiscountAmount
	o.TotalAmount = arg.TotalAmount
	o.UpdatedAt = f.tick()
	f.orders[arg.ID] = o
	return o, nil
}

func (f *fakeStore) GetOrderLine(_ context.Context, arg database.GetOrderLineParams) (database.OrderLine, error) {
	l, ok := f.lines[arg.ID]
	if !ok || l.OrderID != arg.OrderID {
		return database.OrderLine{}, pgx.ErrNoRows
	}
	return l, nil
}

func (f *fakeStore) DeleteOrderLine(_ context.Context, arg database.DeleteOrderLineParams) (uuid.UUID, error) {
	l, ok := f.lines[arg.ID]
	if !ok || l.OrderID != arg.OrderID {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(f.lines, arg.ID)
	return arg.ID, nil
}

func (f *fakeStore) DeleteOrder(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	o, ok := f.orders[id]
	if !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(f.orders, id)
	for lid, l := range f.lines {
		if l.OrderID == id {
			delete(f.lines, lid)
		}
	}
	return o.ID, nil
}

func (f *fakeStore) CreatePayment(_ context.Context, arg database.CreatePaymentParams) (database.Payment, error) {
	p := database.Payment{
		ID: uuid.New(), OrderID: arg.OrderID, PaymentMethod: arg.PaymentMethod,
		Amount: arg.Amount, Status: arg.Status, ProcessedBy: arg.ProcessedBy,
		ProcessedAt: f.tick(),
	}
	f.payments[arg.OrderID] = append(f.payments[arg.OrderID], p)
	return p, nil
}

func (f *fakeStore) DeletePaymentsByOrder(_ context.Context, orderID uuid.UUID) error {
	delete(f.payments, orderID)
	return nil
}

// --- transaction fakes ---

type storeSnapshot struct {
	tables      map[uuid.UUID]database.Table
	menuItems   map[uuid.UUID]database.MenuItem
	ingredients map[uuid.UUID]database.Ingredient
	orders      map[uuid.UUID]database.Order
	lines       map[uuid.UUID]database.OrderLine
	payments    map[uuid.UUID][]database.Payment
	movements   []database.StockMovement
}

func (f *fakeStore) snapshot() storeSnapshot {
	s := storeSnapshot{
		tables:      make(map[uuid.UUID]database.Table, len(f.tables)),
		menuItems:   make(map[uuid.UUID]database.MenuItem, len(f.menuItems)),
		ingredients: make(map[uuid.UUID]database.Ingredient, len(f.ingredients)),
		orders:      make(map[uuid.UUID]database.Order, len(f.orders)),
		lines:       make(map[uuid.UUID]database.OrderLine, len(f.lines)),
		payments:    make(map[uuid.UUID][]database.Payment, len(f.payments)),
		movements:   append([]database.StockMovement(nil), f.movements...),
	}
	for k, v := range f.tables {
		s.tables[k] = v
	}
	for k, v := range f.menuItems {
		s.menuItems[k] = v
	}
	for k, v := range f.ingredients {
		s.ingredients[k] = v
	}
	for k, v := range f.orders {
		s.orders[k] = v
	}
	for k, v := range f.lines {
		s.lines[k] = v
	}
	for k, v := range f.payments {
		s.payments[k] = append([]database.Payment(nil), v...)
	}
	return s
}

func (f *fakeStore) restore(s storeSnapshot) {
	f.tables = s.tables
	f.menuItems = s.menuItems
	f.ingredients = s.ingredients
	f.orders = s.orders
	f.lines = s.lines
	f.payments = s.payments
	f.movements = s.movements
}

// fakeTx implements the pgx.Tx surface the service touches; everything
// else panics so accidental calls surface loudly.
type fakeTx struct {
	store     *fakeStore
	snap      storeSnapshot
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.store.restore(t.snap)
	}
	return nil
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *fakeTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *fakeTx) Conn() *pgx.Conn { panic("not implemented") }

type fakeTxBeginner struct {
	store *fakeStore
}

func (b *fakeTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{store: b.store, snap: b.store.snapshot()}, nil
}

// newTestService wires an OrderService onto a fakeStore with nop sinks.
func newTestService(store *fakeStore) *OrderService {
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(
		&fakeTxBeginner{store: store},
		store,
		newStore,
		NewTotalsCalculator(decimal.NewFromFloat(0.10)),
		NopAuditSink{},
		NopEventSink{},
	)
}
