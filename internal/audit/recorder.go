// Package audit persists who-did-what trails for order and inventory
// mutations.
package audit

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/quanviet-pos/api/internal/database"
)

// Store is the subset of database.Queries the recorder needs.
type Store interface {
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error)
}

// Recorder writes audit rows through the store. It satisfies
// service.AuditSink: failures are logged and swallowed so an audit
// outage never fails the operation being audited.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, before, after any) {
	_, err := r.store.CreateAuditLog(ctx, database.CreateAuditLogParams{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     marshal(action, "before", before),
		After:      marshal(action, "after", after),
	})
	if err != nil {
		log.Printf("ERROR: record audit %s on %s %s: %v", action, entityType, entityID, err)
	}
}

func marshal(action, field string, v any) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: marshal audit %s %s: %v", action, field, err)
		return nil
	}
	return b
}
