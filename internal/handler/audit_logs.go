package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/quanviet-pos/api/internal/database"
)

// AuditLogStore defines the database methods needed by the audit log
// handler. Satisfied by *database.Queries.
type AuditLogStore interface {
	ListAuditLogsByEntity(ctx context.Context, arg database.ListAuditLogsByEntityParams) ([]database.AuditLog, error)
}

// AuditLogHandler exposes the change trail for a single entity.
type AuditLogHandler struct {
	store AuditLogStore
}

// NewAuditLogHandler creates a new AuditLogHandler.
func NewAuditLogHandler(store AuditLogStore) *AuditLogHandler {
	return &AuditLogHandler{store: store}
}

// RegisterRoutes registers audit log endpoints on the given Chi router.
func (h *AuditLogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type auditLogResponse struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Before     json.RawMessage `json:"before"`
	After      json.RawMessage `json:"after"`
	CreatedAt  time.Time       `json:"created_at"`
}

// List handles GET /audit-logs?entity_type=order&entity_id=...
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")
	if entityType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "entity_type is required"})
		return
	}
	entityID, err := uuid.Parse(r.URL.Query().Get("entity_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid entity_id"})
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

	logs, err := h.store.ListAuditLogsByEntity(r.Context(), database.ListAuditLogsByEntityParams{
		EntityType: entityType,
		EntityID:   entityID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		log.Printf("ERROR: list audit logs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]auditLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = auditLogResponse{
			ID:         l.ID,
			ActorID:    l.ActorID,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Before:     json.RawMessage(l.Before),
			After:      json.RawMessage(l.After),
			CreatedAt:  l.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
