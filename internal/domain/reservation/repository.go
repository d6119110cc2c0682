package reservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/models"
)

// Filter selects reservations. Dates are YYYY-MM-DD; the range is [From, To).
type Filter struct {
	BusinessID *uuid.UUID
	CustomerID *uuid.UUID
	From       string
	To         string
}

// Repository is the only path that writes reservations. Methods called on the
// repository passed to WithinTx run inside that transaction.
type Repository interface {
	WithinTx(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// -------- Business --------
	GetBusiness(
		ctx context.Context,
		id uuid.UUID,
	) (*models.Business, error)

	// -------- Admission --------
	LockSlot(
		ctx context.Context,
		businessID uuid.UUID,
		date string,
		start string,
	) error

	ListForDate(
		ctx context.Context,
		businessID uuid.UUID,
		date string,
	) ([]models.Reservation, error)

	FindByIdempotencyKey(
		ctx context.Context,
		businessID uuid.UUID,
		key string,
	) (*models.Reservation, error)

	Create(
		ctx context.Context,
		r *models.Reservation,
	) error

	// -------- State change --------
	Get(
		ctx context.Context,
		id uuid.UUID,
	) (*models.Reservation, error)

	GetForUpdate(
		ctx context.Context,
		id uuid.UUID,
	) (*models.Reservation, error)

	Update(
		ctx context.Context,
		r *models.Reservation,
	) error

	// -------- Listing --------
	List(
		ctx context.Context,
		f Filter,
	) ([]models.Reservation, error)

	// -------- Events --------
	AppendEvent(
		ctx context.Context,
		ev *models.OutboxEvent,
	) error
}
