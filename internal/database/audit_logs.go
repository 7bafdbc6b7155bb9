package database

import (
	"context"

	"github.com/google/uuid"
)

const createAuditLog = `-- name: CreateAuditLog :one
INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, before, after)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, actor_id, action, entity_type, entity_id, before, after, created_at
`

type CreateAuditLogParams struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Before     []byte
	After      []byte
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, createAuditLog,
		arg.ActorID, arg.Action, arg.EntityType, arg.EntityID, arg.Before, arg.After)
	var i AuditLog
	err := row.Scan(&i.ID, &i.ActorID, &i.Action, &i.EntityType, &i.EntityID, &i.Before, &i.After, &i.CreatedAt)
	return i, err
}

const listAuditLogsByEntity = `-- name: ListAuditLogsByEntity :many
SELECT id, actor_id, action, entity_type, entity_id, before, after, created_at
FROM audit_logs
WHERE entity_type = $1 AND entity_id = $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListAuditLogsByEntityParams struct {
	EntityType string
	EntityID   uuid.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListAuditLogsByEntity(ctx context.Context, arg ListAuditLogsByEntityParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogsByEntity, arg.EntityType, arg.EntityID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(&i.ID, &i.ActorID, &i.Action, &i.EntityType, &i.EntityID, &i.Before, &i.After, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
