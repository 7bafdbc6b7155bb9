package service

import (
	"context"

	"github.com/google/uuid"
)

// Topics published to the event sink.
const (
	TopicOrderCreated       = "order-created"
	TopicOrderUpdated       = "order-updated"
	TopicOrderStatusChanged = "order-status-changed"
	TopicTableStatusChanged = "table-status-changed"
)

// AuditSink records who did what to which entity. Implementations are
// fire-and-forget: they log their own failures and never block the
// primary operation.
type AuditSink interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, before, after any)
}

// EventSink fans a domain event out to realtime subscribers.
// Fire-and-forget, same contract as AuditSink.
type EventSink interface {
	Publish(topic string, payload any)
}

// NopAuditSink discards audit records. Used in tests.
type NopAuditSink struct{}

func (NopAuditSink) Record(context.Context, uuid.UUID, string, string, uuid.UUID, any, any) {}

// NopEventSink discards events. Used in tests.
type NopEventSink struct{}

func (NopEventSink) Publish(string, any) {}

// OrderEvent is the payload for order-* topics.
type OrderEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TableID     uuid.UUID `json:"table_id"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
}

// TableEvent is the payload for the table-status-changed topic.
type TableEvent struct {
	TableID uuid.UUID `json:"table_id"`
	Status  string    `json:"status"`
}
