package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/domain/calendar"
	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/dto"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

// Queries are the read-only reservation listings.
type Queries struct {
	d Deps
}

func NewQueries(d Deps) *Queries {
	return &Queries{d: d.withDefaults()}
}

// Get returns a reservation the caller is a party to.
func (q *Queries) Get(
	ctx context.Context,
	id uuid.UUID,
	p Principal,
) (*models.Reservation, error) {

	r, err := q.d.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := actorFor(p, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (q *Queries) ListByDate(
	ctx context.Context,
	businessID uuid.UUID,
	dateStr string,
) ([]dto.ReservationListDTO, error) {

	date, err := calendar.ParseDate(dateStr)
	if err != nil {
		return nil, httperr.InvalidField("date", "must be a date in YYYY-MM-DD format")
	}

	list, err := q.d.Repo.List(ctx, reservation.Filter{
		BusinessID: &businessID,
		From:       date.String(),
		To:         date.AddDays(1).String(),
	})
	if err != nil {
		return nil, err
	}
	return dto.ReservationList(list), nil
}

func (q *Queries) ListByMonth(
	ctx context.Context,
	businessID uuid.UUID,
	year int,
	month int,
) ([]dto.ReservationListDTO, error) {

	if month < 1 || month > 12 {
		return nil, httperr.InvalidField("month", "must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return nil, httperr.InvalidField("year", "must be between 2000 and 2100")
	}

	first, next := calendar.MonthRange(year, time.Month(month))
	list, err := q.d.Repo.List(ctx, reservation.Filter{
		BusinessID: &businessID,
		From:       first.String(),
		To:         next.String(),
	})
	if err != nil {
		return nil, err
	}
	return dto.ReservationList(list), nil
}

func (q *Queries) ListForCustomer(
	ctx context.Context,
	customerID uuid.UUID,
) ([]models.Reservation, error) {
	return q.d.Repo.List(ctx, reservation.Filter{CustomerID: &customerID})
}
