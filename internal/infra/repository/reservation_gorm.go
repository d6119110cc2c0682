package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/models"
)

type ReservationGormRepository struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewReservationGormRepository returns a repository whose transactions give
// up waiting on row or advisory locks after lockTimeout.
func NewReservationGormRepository(db *gorm.DB, lockTimeout time.Duration) *ReservationGormRepository {
	return &ReservationGormRepository{db: db, lockTimeout: lockTimeout}
}

// --------------------------------------------------
// Transaction
// --------------------------------------------------

func (r *ReservationGormRepository) WithinTx(
	ctx context.Context,
	fn func(tx reservation.Repository) error,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&ReservationGormRepository{db: tx, lockTimeout: r.lockTimeout})
	})
	return classify("transaction", err)
}

// --------------------------------------------------
// Business
// --------------------------------------------------

func (r *ReservationGormRepository) GetBusiness(
	ctx context.Context,
	id uuid.UUID,
) (*models.Business, error) {

	var b models.Business
	if err := r.db.WithContext(ctx).
		Preload("WorkingHours", func(db *gorm.DB) *gorm.DB { return db.Order("weekday") }).
		Preload("SpecialDates", func(db *gorm.DB) *gorm.DB { return db.Order("date") }).
		First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound("business", "get business", err)
	}
	return &b, nil
}

// --------------------------------------------------
// Admission
// --------------------------------------------------

// LockSlot takes a transaction-scoped advisory lock on the slot key. Outside a
// transaction the lock is released immediately and serializes nothing.
func (r *ReservationGormRepository) LockSlot(
	ctx context.Context,
	businessID uuid.UUID,
	date string,
	start string,
) error {
	key := fmt.Sprintf("%s|%s|%s", businessID, date, start)
	return classify("lock slot",
		r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error)
}

func (r *ReservationGormRepository) ListForDate(
	ctx context.Context,
	businessID uuid.UUID,
	date string,
) ([]models.Reservation, error) {

	var list []models.Reservation
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND date = ?", businessID, date).
		Order("start_time ASC, created_at ASC").
		Find(&list).Error; err != nil {
		return nil, classify("list reservations", err)
	}
	return list, nil
}

func (r *ReservationGormRepository) FindByIdempotencyKey(
	ctx context.Context,
	businessID uuid.UUID,
	key string,
) (*models.Reservation, error) {

	var list []models.Reservation
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND idempotency_key = ?", businessID, key).
		Limit(1).
		Find(&list).Error; err != nil {
		return nil, classify("find idempotency key", err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *ReservationGormRepository) Create(
	ctx context.Context,
	res *models.Reservation,
) error {
	return classify("create reservation", r.db.WithContext(ctx).Create(res).Error)
}

// --------------------------------------------------
// State change
// --------------------------------------------------

func (r *ReservationGormRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*models.Reservation, error) {

	var res models.Reservation
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, notFound("reservation", "get reservation", err)
	}
	return &res, nil
}

func (r *ReservationGormRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*models.Reservation, error) {

	var res models.Reservation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&res, "id = ?", id).Error; err != nil {
		return nil, notFound("reservation", "lock reservation", err)
	}
	return &res, nil
}

func (r *ReservationGormRepository) Update(
	ctx context.Context,
	res *models.Reservation,
) error {
	return classify("update reservation", r.db.WithContext(ctx).Save(res).Error)
}

// --------------------------------------------------
// Listing
// --------------------------------------------------

func (r *ReservationGormRepository) List(
	ctx context.Context,
	f reservation.Filter,
) ([]models.Reservation, error) {

	q := r.db.WithContext(ctx).Model(&models.Reservation{})

	if f.BusinessID != nil {
		q = q.Where("business_id = ?", *f.BusinessID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date < ?", f.To)
	}

	var list []models.Reservation
	if err := q.Order("date ASC, start_time ASC, created_at ASC").Find(&list).Error; err != nil {
		return nil, classify("list reservations", err)
	}
	return list, nil
}

// --------------------------------------------------
// Events
// --------------------------------------------------

func (r *ReservationGormRepository) AppendEvent(
	ctx context.Context,
	ev *models.OutboxEvent,
) error {
	return classify("append event", r.db.WithContext(ctx).Create(ev).Error)
}

var _ reservation.Repository = (*ReservationGormRepository)(nil)
