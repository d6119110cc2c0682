package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/models"
)

type Filter struct {
	BusinessID uuid.UUID
	Action     string
	Entity     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Store persists and lists audit rows.
type Store interface {
	WriteAudit(ctx context.Context, log *models.AuditLog) error
	ListAudit(ctx context.Context, f Filter) ([]models.AuditLog, int64, error)
}

type Logger struct {
	store Store
}

func New(store Store) *Logger {
	return &Logger{store: store}
}

func (l *Logger) Log(ctx context.Context, ev Event) error {
	var metaJSON string
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	row := models.AuditLog{
		BusinessID: ev.BusinessID,
		ActorID:    ev.ActorID,
		Action:     ev.Action,
		Entity:     ev.Entity,
		EntityID:   ev.EntityID,
		Metadata:   metaJSON,
	}

	return l.store.WriteAudit(ctx, &row)
}
