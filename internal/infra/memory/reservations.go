package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

// txRepo implements reservation.Repository over one state without locking.
// The caller owns the lock.
type txRepo struct {
	store *Store
	st    *state
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx reservation.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return httperr.Persistence("begin", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.st.clone()
	if err := fn(&txRepo{store: s, st: draft}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return httperr.Persistence("commit", err)
	}
	s.st = draft
	return nil
}

func (t *txRepo) WithinTx(_ context.Context, fn func(tx reservation.Repository) error) error {
	return fn(t)
}

func (t *txRepo) GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	if err := ctx.Err(); err != nil {
		return nil, httperr.Persistence("get business", err)
	}
	b, ok := t.st.businesses[id]
	if !ok {
		return nil, httperr.NotFound("business")
	}
	b = copyBusiness(b)
	return &b, nil
}

func (t *txRepo) LockSlot(ctx context.Context, _ uuid.UUID, _ string, _ string) error {
	if err := ctx.Err(); err != nil {
		return httperr.Persistence("lock slot", err)
	}
	return nil
}

func (t *txRepo) ListForDate(ctx context.Context, businessID uuid.UUID, date string) ([]models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, httperr.Persistence("list reservations", err)
	}
	return t.filter(func(r models.Reservation) bool {
		return r.BusinessID == businessID && r.Date == date
	}), nil
}

func (t *txRepo) FindByIdempotencyKey(ctx context.Context, businessID uuid.UUID, key string) (*models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, httperr.Persistence("find idempotency key", err)
	}
	for _, r := range t.st.reservations {
		if r.BusinessID == businessID && r.IdempotencyKey != nil && *r.IdempotencyKey == key {
			return &r, nil
		}
	}
	return nil, nil
}

func (t *txRepo) Create(ctx context.Context, r *models.Reservation) error {
	if err := ctx.Err(); err != nil {
		return httperr.Persistence("create reservation", err)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if err := t.checkUnique(r); err != nil {
		return err
	}
	now := t.store.now()
	r.CreatedAt = now
	r.UpdatedAt = now
	t.st.reservations[r.ID] = *r
	return nil
}

func (t *txRepo) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, httperr.Persistence("get reservation", err)
	}
	r, ok := t.st.reservations[id]
	if !ok {
		return nil, httperr.NotFound("reservation")
	}
	return &r, nil
}

func (t *txRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return t.Get(ctx, id)
}

func (t *txRepo) Update(ctx context.Context, r *models.Reservation) error {
	if err := ctx.Err(); err != nil {
		return httperr.Persistence("update reservation", err)
	}
	if _, ok := t.st.reservations[r.ID]; !ok {
		return httperr.NotFound("reservation")
	}
	if err := t.checkUnique(r); err != nil {
		return err
	}
	r.UpdatedAt = t.store.now()
	t.st.reservations[r.ID] = *r
	return nil
}

func (t *txRepo) List(ctx context.Context, f reservation.Filter) ([]models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, httperr.Persistence("list reservations", err)
	}
	return t.filter(func(r models.Reservation) bool {
		if f.BusinessID != nil && r.BusinessID != *f.BusinessID {
			return false
		}
		if f.CustomerID != nil && (r.CustomerID == nil || *r.CustomerID != *f.CustomerID) {
			return false
		}
		if f.From != "" && r.Date < f.From {
			return false
		}
		if f.To != "" && r.Date >= f.To {
			return false
		}
		return true
	}), nil
}

func (t *txRepo) AppendEvent(ctx context.Context, ev *models.OutboxEvent) error {
	if err := ctx.Err(); err != nil {
		return httperr.Persistence("append event", err)
	}
	ev.ID = t.st.nextID()
	ev.CreatedAt = t.store.now()
	t.st.outbox = append(t.st.outbox, *ev)
	return nil
}

// checkUnique mirrors the partial unique indexes of the SQL schema.
func (t *txRepo) checkUnique(r *models.Reservation) error {
	active := reservation.Status(r.Status) != reservation.StatusCancelled
	for id, o := range t.st.reservations {
		if id == r.ID || o.BusinessID != r.BusinessID {
			continue
		}
		if active && reservation.Status(o.Status) != reservation.StatusCancelled &&
			o.Date == r.Date && o.StartTime == r.StartTime && o.SlotOrdinal == r.SlotOrdinal {
			return httperr.SlotUnavailable()
		}
		if r.IdempotencyKey != nil && o.IdempotencyKey != nil && *o.IdempotencyKey == *r.IdempotencyKey {
			return httperr.Conflict("duplicate_idempotency_key", "Idempotency key already used.")
		}
	}
	return nil
}

func (t *txRepo) filter(keep func(models.Reservation) bool) []models.Reservation {
	out := []models.Reservation{}
	for _, r := range t.st.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Non-transactional entry points lock the store and act on the live state.

func (s *Store) live() *txRepo { return &txRepo{store: s, st: s.st} }

func (s *Store) GetBusiness(ctx context.Context, id uuid.UUID) (b *models.Business, err error) {
	err = s.view(func(*state) error { b, err = s.live().GetBusiness(ctx, id); return err })
	return b, err
}

func (s *Store) LockSlot(ctx context.Context, businessID uuid.UUID, date, start string) error {
	return s.view(func(*state) error { return s.live().LockSlot(ctx, businessID, date, start) })
}

func (s *Store) ListForDate(ctx context.Context, businessID uuid.UUID, date string) (rs []models.Reservation, err error) {
	err = s.view(func(*state) error { rs, err = s.live().ListForDate(ctx, businessID, date); return err })
	return rs, err
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, businessID uuid.UUID, key string) (r *models.Reservation, err error) {
	err = s.view(func(*state) error { r, err = s.live().FindByIdempotencyKey(ctx, businessID, key); return err })
	return r, err
}

func (s *Store) Create(ctx context.Context, r *models.Reservation) error {
	return s.view(func(*state) error { return s.live().Create(ctx, r) })
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (r *models.Reservation, err error) {
	err = s.view(func(*state) error { r, err = s.live().Get(ctx, id); return err })
	return r, err
}

func (s *Store) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return s.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, r *models.Reservation) error {
	return s.view(func(*state) error { return s.live().Update(ctx, r) })
}

func (s *Store) List(ctx context.Context, f reservation.Filter) (rs []models.Reservation, err error) {
	err = s.view(func(*state) error { rs, err = s.live().List(ctx, f); return err })
	return rs, err
}

func (s *Store) AppendEvent(ctx context.Context, ev *models.OutboxEvent) error {
	return s.view(func(*state) error { return s.live().AppendEvent(ctx, ev) })
}

var (
	_ reservation.Repository = (*Store)(nil)
	_ reservation.Repository = (*txRepo)(nil)
)
