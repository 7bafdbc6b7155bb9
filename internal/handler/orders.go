package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/middleware"
	"github.com/quanviet-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateStatus(ctx context.Context, req service.UpdateStatusRequest) (database.Order, error)
	RemoveLine(ctx context.Context, orderID, lineID, actorID uuid.UUID) (database.Order, error)
	Delete(ctx context.Context, orderID, actorID uuid.UUID) error
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	ListStockMovementsByReference(ctx context.Context, referenceID pgtype.UUID) ([]database.StockMovement, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}/lines/{lineID}", h.RemoveLine)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/stock-movements", h.ListStockMovements)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableID    string                   `json:"table_id"`
	CustomerID string                   `json:"customer_id"`
	Notes      string                   `json:"notes"`
	Discount   string                   `json:"discount"`
	Lines      []createOrderLineRequest `json:"lines"`
}

type createOrderLineRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	Notes      string `json:"notes"`
}

type updateStatusRequest struct {
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"order_number"`
	TableID        uuid.UUID           `json:"table_id"`
	CustomerID     *string             `json:"customer_id"`
	Status         string              `json:"status"`
	Notes          *string             `json:"notes"`
	Subtotal       string              `json:"subtotal"`
	TaxAmount      string              `json:"tax_amount"`
	DiscountAmount string              `json:"discount_amount"`
	TotalAmount    string              `json:"total_amount"`
	Paid           bool                `json:"paid"`
	PaidAt         *time.Time          `json:"paid_at"`
	CreatedBy      uuid.UUID           `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	Lines          []orderLineResponse `json:"lines"`
}

type orderLineResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	Subtotal   string    `json:"subtotal"`
	Notes      *string   `json:"notes"`
}

type orderDetailResponse struct {
	orderResponse
	Payments []paymentResponse `json:"payments"`
}

type paymentResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"order_id"`
	PaymentMethod string    `json:"payment_method"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	ProcessedBy   uuid.UUID `json:"processed_by"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcLines := make([]service.CreateOrderLineRequest, len(req.Lines))
	for i, line := range req.Lines {
		svcLines[i] = service.CreateOrderLineRequest{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			Notes:      line.Notes,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableID:    req.TableID,
		CustomerID: req.CustomerID,
		ActorID:    claims.UserID,
		Notes:      req.Notes,
		Discount:   req.Discount,
		Lines:      svcLines,
	})
	if err != nil {
		writeOrderError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Lines))
}

// List handles GET /orders with optional status, table_id and date filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListOrdersParams{Limit: 50, Offset: 0}

	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = pgtype.Text{String: status, Valid: true}
	}
	if tableID := r.URL.Query().Get("table_id"); tableID != "" {
		id, err := uuid.Parse(tableID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
			return
		}
		params.TableID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from timestamp"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to timestamp"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}, returning the order with lines and payments.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListOrderLinesByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order lines: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	paymentResps := make([]paymentResponse, len(payments))
	for i, p := range payments {
		paymentResps[i] = toPaymentResponse(p)
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: toOrderResponse(order, lines),
		Payments:      paymentResps,
	})
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), service.UpdateStatusRequest{
		OrderID:       orderID,
		NewStatus:     req.Status,
		ActorID:       claims.UserID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeOrderError(w, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// RemoveLine handles DELETE /orders/{id}/lines/{lineID}.
func (h *OrderHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	order, err := h.svc.RemoveLine(r.Context(), orderID, lineID, claims.UserID)
	if err != nil {
		writeOrderError(w, "remove order line", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// Delete handles DELETE /orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), orderID, claims.UserID); err != nil {
		writeOrderError(w, "delete order", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListStockMovements handles GET /orders/{id}/stock-movements: every
// ledger row the order produced, consumption and refunds alike.
func (h *OrderHandler) ListStockMovements(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	movements, err := h.store.ListStockMovementsByReference(r.Context(), pgtype.UUID{Bytes: orderID, Valid: true})
	if err != nil {
		log.Printf("ERROR: list order stock movements: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stockMovementResponse, len(movements))
	for i, m := range movements {
		resp[i] = toStockMovementResponse(m)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// writeOrderError maps service errors to HTTP status codes.
func writeOrderError(w http.ResponseWriter, op string, err error) {
	var insufficient *service.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": insufficient.Error()})
	case isOrderValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderLineNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOrderTerminal),
		errors.Is(err, service.ErrTableNotOrderable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// isOrderValidationError checks for service errors that should result
// in 400 Bad Request.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyLines) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidTableID) ||
		errors.Is(err, service.ErrInvalidMenuItemID) ||
		errors.Is(err, service.ErrInvalidCustomerID) ||
		errors.Is(err, service.ErrInvalidDiscount) ||
		errors.Is(err, service.ErrInvalidStatus) ||
		errors.Is(err, service.ErrInvalidPayMethod) ||
		errors.Is(err, service.ErrTableNotFound) ||
		errors.Is(err, service.ErrMenuItemNotFound) ||
		errors.Is(err, service.ErrMenuItemUnavailable)
}

func toOrderResponse(o database.Order, lines []database.OrderLine) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		TableID:        o.TableID,
		Status:         o.Status,
		Subtotal:       numericToString(o.Subtotal),
		TaxAmount:      numericToString(o.TaxAmount),
		DiscountAmount: numericToString(o.DiscountAmount),
		TotalAmount:    numericToString(o.TotalAmount),
		Paid:           o.Paid,
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
		Lines:          []orderLineResponse{},
	}
	if o.CustomerID.Valid {
		s := uuid.UUID(o.CustomerID.Bytes).String()
		resp.CustomerID = &s
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	if o.PaidAt.Valid {
		t := o.PaidAt.Time
		resp.PaidAt = &t
	}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, toOrderLineResponse(line))
	}
	return resp
}

func toOrderLineResponse(l database.OrderLine) orderLineResponse {
	resp := orderLineResponse{
		ID:         l.ID,
		MenuItemID: l.MenuItemID,
		Quantity:   l.Quantity,
		UnitPrice:  numericToString(l.UnitPrice),
		Subtotal:   numericToString(l.Subtotal),
	}
	if l.Notes.Valid {
		resp.Notes = &l.Notes.String
	}
	return resp
}

func toPaymentResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		PaymentMethod: p.PaymentMethod,
		Amount:        numericToString(p.Amount),
		Status:        p.Status,
		ProcessedBy:   p.ProcessedBy,
		ProcessedAt:   p.ProcessedAt,
	}
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
