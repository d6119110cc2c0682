package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rezervi/rezervi-api/internal/audit"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/outbox"
)

// EventGormRepository stores audit rows and relays outbox events.
type EventGormRepository struct {
	db *gorm.DB
}

func NewEventGormRepository(db *gorm.DB) *EventGormRepository {
	return &EventGormRepository{db: db}
}

// --------------------------------------------------
// Audit
// --------------------------------------------------

func (r *EventGormRepository) WriteAudit(ctx context.Context, l *models.AuditLog) error {
	return classify("write audit", r.db.WithContext(ctx).Create(l).Error)
}

func (r *EventGormRepository) ListAudit(
	ctx context.Context,
	f audit.Filter,
) ([]models.AuditLog, int64, error) {

	q := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("business_id = ?", f.BusinessID)

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Entity != "" {
		q = q.Where("entity = ?", f.Entity)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify("count audit", err)
	}

	var logs []models.AuditLog
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Order("created_at DESC").Offset(f.Offset).Find(&logs).Error; err != nil {
		return nil, 0, classify("list audit", err)
	}
	return logs, total, nil
}

// --------------------------------------------------
// Outbox
// --------------------------------------------------

// RelayBatch locks up to limit unpublished events with SKIP LOCKED so several
// relays can run side by side, hands them to fn and marks the ids fn reports
// as published, all in one transaction. The marks commit even when fn fails
// part way; its error is returned afterwards.
func (r *EventGormRepository) RelayBatch(
	ctx context.Context,
	limit int,
	fn func([]models.OutboxEvent) ([]uint, error),
) error {
	var relayErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch []models.OutboxEvent
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("published_at IS NULL").
			Order("id ASC").
			Limit(limit).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		var published []uint
		published, relayErr = fn(batch)
		if len(published) == 0 {
			return nil
		}
		return tx.Model(&models.OutboxEvent{}).
			Where("id IN ?", published).
			Update("published_at", time.Now()).Error
	})
	if err != nil {
		return classify("relay outbox", err)
	}
	return relayErr
}

func (r *EventGormRepository) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", before).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, classify("purge outbox", res.Error)
}

var (
	_ audit.Store  = (*EventGormRepository)(nil)
	_ outbox.Store = (*EventGormRepository)(nil)
)
