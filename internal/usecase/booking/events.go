package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/models"
)

type reservationCreated struct {
	ReservationID uuid.UUID  `json:"reservation_id"`
	BusinessID    uuid.UUID  `json:"business_id"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	Date          string     `json:"date"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Status        string     `json:"status"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

type statusChanged struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	BusinessID    uuid.UUID `json:"business_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Actor         string    `json:"actor"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type rescheduled struct {
	ReservationID     uuid.UUID `json:"reservation_id"`
	RescheduledFromID uuid.UUID `json:"rescheduled_from_id"`
	BusinessID        uuid.UUID `json:"business_id"`
	FromDate          string    `json:"from_date"`
	FromTime          string    `json:"from_time"`
	Date              string    `json:"date"`
	StartTime         string    `json:"start_time"`
	Status            string    `json:"status"`
	Actor             string    `json:"actor"`
	OccurredAt        time.Time `json:"occurred_at"`
}

func createdPayload(r *models.Reservation, at time.Time) reservationCreated {
	return reservationCreated{
		ReservationID: r.ID,
		BusinessID:    r.BusinessID,
		CustomerID:    r.CustomerID,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Status:        r.Status,
		OccurredAt:    at,
	}
}
