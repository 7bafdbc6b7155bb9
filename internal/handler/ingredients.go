package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/enum"
	"github.com/quanviet-pos/api/internal/measure"
	"github.com/quanviet-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// IngredientStore defines the database methods needed by ingredient
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type IngredientStore interface {
	service.StockStore

	CreateIngredient(ctx context.Context, arg database.CreateIngredientParams) (database.Ingredient, error)
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
	UpdateIngredient(ctx context.Context, arg database.UpdateIngredientParams) (database.Ingredient, error)
	DeleteIngredient(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListStockMovementsByIngredient(ctx context.Context, arg database.ListStockMovementsByIngredientParams) ([]database.StockMovement, error)
}

// IngredientHandler handles ingredient CRUD, manual stock adjustments
// and the movement history endpoint.
type IngredientHandler struct {
	store  IngredientStore
	ledger service.StockLedger
}

// NewIngredientHandler creates a new IngredientHandler.
func NewIngredientHandler(store IngredientStore) *IngredientHandler {
	return &IngredientHandler{store: store}
}

// RegisterRoutes registers ingredient endpoints on the given Chi router.
func (h *IngredientHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/stock", h.AdjustStock)
	r.Get("/{id}/movements", h.ListMovements)
}

// --- Request / Response types ---

type ingredientRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	StockUnit    string `json:"stock_unit"`
	CurrentStock string `json:"current_stock"` // only read on create
	MinStock     string `json:"min_stock"`
	MaxStock     string `json:"max_stock"`
	UnitCost     string `json:"unit_cost"`
}

type ingredientResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	StockUnit    string    `json:"stock_unit"`
	CurrentStock string    `json:"current_stock"`
	MinStock     string    `json:"min_stock"`
	MaxStock     string    `json:"max_stock"`
	UnitCost     string    `json:"unit_cost"`
	LowStock     bool      `json:"low_stock"`
	CreatedAt    time.Time `json:"created_at"`
}

type adjustStockRequest struct {
	Delta  string `json:"delta"`
	Reason string `json:"reason"`
}

type stockMovementResponse struct {
	ID           uuid.UUID `json:"id"`
	IngredientID uuid.UUID `json:"ingredient_id"`
	MovementType string    `json:"movement_type"`
	Quantity     string    `json:"quantity"`
	Reason       string    `json:"reason"`
	ReferenceID  *string   `json:"reference_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func toIngredientResponse(i database.Ingredient) ingredientResponse {
	current := quantityToString(i.CurrentStock)
	min := quantityToString(i.MinStock)
	cd, _ := decimal.NewFromString(current)
	md, _ := decimal.NewFromString(min)
	return ingredientResponse{
		ID:           i.ID,
		Name:         i.Name,
		Category:     i.Category,
		StockUnit:    i.StockUnit,
		CurrentStock: current,
		MinStock:     min,
		MaxStock:     quantityToString(i.MaxStock),
		UnitCost:     numericToString(i.UnitCost),
		LowStock:     md.IsPositive() && cd.LessThanOrEqual(md),
		CreatedAt:    i.CreatedAt,
	}
}

func toStockMovementResponse(m database.StockMovement) stockMovementResponse {
	resp := stockMovementResponse{
		ID:           m.ID,
		IngredientID: m.IngredientID,
		MovementType: m.MovementType,
		Quantity:     quantityToString(m.Quantity),
		Reason:       m.Reason,
		CreatedAt:    m.CreatedAt,
	}
	if m.ReferenceID.Valid {
		s := uuid.UUID(m.ReferenceID.Bytes).String()
		resp.ReferenceID = &s
	}
	return resp
}

// --- Handlers ---

func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.ListIngredients(r.Context())
	if err != nil {
		log.Printf("ERROR: list ingredients: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]ingredientResponse, len(ingredients))
	for i, ing := range ingredients {
		resp[i] = toIngredientResponse(ing)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !isValidCategory(req.Category) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category must be SOLID, LIQUID or COUNTED"})
		return
	}
	if !measure.KnownUnit(req.StockUnit) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown stock_unit"})
		return
	}

	currentStock, err := parseQuantity(req.CurrentStock, false)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current_stock must be a non-negative decimal"})
		return
	}
	minStock, err := parseQuantity(req.MinStock, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "min_stock must be a non-negative decimal"})
		return
	}
	maxStock, err := parseQuantity(req.MaxStock, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_stock must be a non-negative decimal"})
		return
	}
	unitCost, err := parseQuantity(req.UnitCost, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unit_cost must be a non-negative decimal"})
		return
	}

	ingredient, err := h.store.CreateIngredient(r.Context(), database.CreateIngredientParams{
		Name:         req.Name,
		Category:     req.Category,
		StockUnit:    req.StockUnit,
		CurrentStock: currentStock,
		MinStock:     minStock,
		MaxStock:     maxStock,
		UnitCost:     unitCost,
	})
	if err != nil {
		log.Printf("ERROR: create ingredient: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toIngredientResponse(ingredient))
}

func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	ingredient, err := h.store.GetIngredient(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		log.Printf("ERROR: get ingredient: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toIngredientResponse(ingredient))
}

// Update modifies ingredient metadata. Stock levels are excluded here;
// they move only through the stock endpoint and order flows.
func (h *IngredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	var req ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !isValidCategory(req.Category) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category must be SOLID, LIQUID or COUNTED"})
		return
	}
	if !measure.KnownUnit(req.StockUnit) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown stock_unit"})
		return
	}

	minStock, err := parseQuantity(req.MinStock, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "min_stock must be a non-negative decimal"})
		return
	}
	maxStock, err := parseQuantity(req.MaxStock, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_stock must be a non-negative decimal"})
		return
	}
	unitCost, err := parseQuantity(req.UnitCost, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unit_cost must be a non-negative decimal"})
		return
	}

	ingredient, err := h.store.UpdateIngredient(r.Context(), database.UpdateIngredientParams{
		ID:        id,
		Name:      req.Name,
		Category:  req.Category,
		StockUnit: req.StockUnit,
		MinStock:  minStock,
		MaxStock:  maxStock,
		UnitCost:  unitCost,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		log.Printf("ERROR: update ingredient: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toIngredientResponse(ingredient))
}

func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	if _, err := h.store.DeleteIngredient(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "ingredient is used by recipes and cannot be deleted"})
			return
		}
		log.Printf("ERROR: delete ingredient: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdjustStock handles POST /ingredients/{id}/stock: a signed delta in
// the ingredient's stock unit, recorded as a manual movement.
func (h *IngredientHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	delta, err := decimal.NewFromString(req.Delta)
	if err != nil || delta.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be a non-zero decimal"})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = enum.StockReasonManualAdjustment
	}

	if _, err := h.ledger.Apply(r.Context(), h.store, service.ApplyParams{
		IngredientID: id,
		Quantity:     delta,
		Reason:       reason,
	}); err != nil {
		var insufficient *service.InsufficientStockError
		switch {
		case errors.As(err, &insufficient):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": insufficient.Error()})
		case errors.Is(err, service.ErrIngredientNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
		default:
			log.Printf("ERROR: adjust stock: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	ingredient, err := h.store.GetIngredient(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: get ingredient after adjust: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toIngredientResponse(ingredient))
}

// ListMovements handles GET /ingredients/{id}/movements.
func (h *IngredientHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	limit := int32(50)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}
	offset := int32(0)
	if s := r.URL.Query().Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		offset = int32(n)
	}

	movements, err := h.store.ListStockMovementsByIngredient(r.Context(), database.ListStockMovementsByIngredientParams{
		IngredientID: id,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		log.Printf("ERROR: list stock movements: %v", err)
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

func isValidCategory(c string) bool {
	switch c {
	case enum.IngredientCategorySolid, enum.IngredientCategoryLiquid, enum.IngredientCategoryCounted:
		return true
	}
	return false
}

// parseQuantity parses a non-negative decimal; optional fields accept
// the empty string as zero.
func parseQuantity(s string, optional bool) (pgtype.Numeric, error) {
	if s == "" {
		if optional {
			s = "0"
		} else {
			return pgtype.Numeric{}, errors.New("required")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errors.New("negative quantity")
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}
