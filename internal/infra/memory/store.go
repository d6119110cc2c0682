package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/models"
)

// Store keeps every aggregate in process memory. Transactions hold the store
// lock for their whole duration and work on a staged copy that replaces the
// live state only on success.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

type state struct {
	businesses   map[uuid.UUID]models.Business
	users        map[uuid.UUID]models.User
	reservations map[uuid.UUID]models.Reservation
	outbox       []models.OutboxEvent
	audit        []models.AuditLog
	seq          uint
}

func New() *Store {
	return &Store{
		st: &state{
			businesses:   map[uuid.UUID]models.Business{},
			users:        map[uuid.UUID]models.User{},
			reservations: map[uuid.UUID]models.Reservation{},
		},
		now: time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (st *state) clone() *state {
	c := &state{
		businesses:   make(map[uuid.UUID]models.Business, len(st.businesses)),
		users:        make(map[uuid.UUID]models.User, len(st.users)),
		reservations: make(map[uuid.UUID]models.Reservation, len(st.reservations)),
		outbox:       append([]models.OutboxEvent(nil), st.outbox...),
		audit:        append([]models.AuditLog(nil), st.audit...),
		seq:          st.seq,
	}
	for k, v := range st.businesses {
		c.businesses[k] = copyBusiness(v)
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.reservations {
		c.reservations[k] = v
	}
	return c
}

func (st *state) nextID() uint {
	st.seq++
	return st.seq
}

func copyBusiness(b models.Business) models.Business {
	b.WorkingHours = append([]models.WorkingHours(nil), b.WorkingHours...)
	b.SpecialDates = append([]models.SpecialDate(nil), b.SpecialDates...)
	return b
}

// view runs fn against the live state under the store lock.
func (s *Store) view(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}
