package dto

import (
	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/models"
)

// ReservationListDTO is the compact row used by owner and customer listings.
type ReservationListDTO struct {
	ID            uuid.UUID `json:"id"`
	BusinessID    uuid.UUID `json:"business_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
}

func ReservationList(rs []models.Reservation) []ReservationListDTO {
	out := make([]ReservationListDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, ReservationListDTO{
			ID:            r.ID,
			BusinessID:    r.BusinessID,
			Date:          r.Date,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			Status:        r.Status,
			CustomerName:  r.CustomerName,
			CustomerPhone: r.CustomerPhone,
			PaymentMethod: r.PaymentMethod,
			PaymentStatus: r.PaymentStatus,
		})
	}
	return out
}

// SlotDTO is one bookable slot.
type SlotDTO struct {
	Time              string `json:"time"`
	EndTime           string `json:"end_time"`
	CapacityRemaining int    `json:"capacity_remaining"`
}

type AvailabilityDTO struct {
	Date  string    `json:"date"`
	Slots []SlotDTO `json:"slots"`
}
