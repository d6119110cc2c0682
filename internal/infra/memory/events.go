package memory

import (
	"context"
	"sort"
	"time"

	"github.com/rezervi/rezervi-api/internal/audit"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

// -------- Audit --------

func (s *Store) WriteAudit(ctx context.Context, l *models.AuditLog) error {
	return s.view(func(st *state) error {
		l.ID = st.nextID()
		l.CreatedAt = s.now()
		st.audit = append(st.audit, *l)
		return nil
	})
}

func (s *Store) ListAudit(ctx context.Context, f audit.Filter) ([]models.AuditLog, int64, error) {
	var out []models.AuditLog
	err := s.view(func(st *state) error {
		for _, l := range st.audit {
			if l.BusinessID != f.BusinessID {
				continue
			}
			if f.Action != "" && l.Action != f.Action {
				continue
			}
			if f.Entity != "" && l.Entity != f.Entity {
				continue
			}
			if f.From != nil && l.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && !l.CreatedAt.Before(*f.To) {
				continue
			}
			out = append(out, l)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int64(len(out))
	start := min(f.Offset, len(out))
	end := len(out)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(out))
	}
	return out[start:end], total, err
}

// -------- Outbox --------

func (s *Store) RelayBatch(ctx context.Context, limit int, fn func([]models.OutboxEvent) ([]uint, error)) error {
	if err := ctx.Err(); err != nil {
		return httperr.Persistence("relay batch", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []models.OutboxEvent
	for _, ev := range s.st.outbox {
		if ev.PublishedAt == nil {
			batch = append(batch, ev)
			if len(batch) == limit {
				break
			}
		}
	}
	if len(batch) == 0 {
		return nil
	}

	published, err := fn(batch)

	done := make(map[uint]bool, len(published))
	for _, id := range published {
		done[id] = true
	}
	now := s.now()
	for i := range s.st.outbox {
		if done[s.st.outbox[i].ID] {
			s.st.outbox[i].PublishedAt = &now
		}
	}
	return err
}

func (s *Store) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	err := s.view(func(st *state) error {
		kept := st.outbox[:0]
		for _, ev := range st.outbox {
			if ev.PublishedAt != nil && ev.PublishedAt.Before(before) {
				removed++
				continue
			}
			kept = append(kept, ev)
		}
		st.outbox = kept
		return nil
	})
	return removed, err
}

// Outbox returns a copy of every stored event.
func (s *Store) Outbox() []models.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OutboxEvent(nil), s.st.outbox...)
}

var _ audit.Store = (*Store)(nil)
