package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Reservation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;index:idx_reservation_day" json:"business_id"`

	CustomerID    *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName  string     `gorm:"size:100;not null" json:"customer_name"`
	CustomerPhone string     `gorm:"size:20;not null" json:"customer_phone"`
	CustomerEmail string     `gorm:"size:100" json:"customer_email,omitempty"`

	Date        string `gorm:"size:10;not null;index:idx_reservation_day" json:"date"`
	StartTime   string `gorm:"size:5;not null" json:"start_time"`
	EndTime     string `gorm:"size:5;not null" json:"end_time"`
	SlotOrdinal int    `gorm:"not null" json:"-"`

	Status        string `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentMethod string `gorm:"size:20;not null;default:'cash'" json:"payment_method"`
	PaymentStatus string `gorm:"size:20;not null;default:'unpaid'" json:"payment_status"`
	Notes         string `gorm:"size:255" json:"notes,omitempty"`

	IdempotencyKey    *string    `gorm:"size:100" json:"-"`
	RescheduledFromID *uuid.UUID `gorm:"type:uuid" json:"rescheduled_from_id,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy string     `gorm:"size:20" json:"cancelled_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Reservation) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Constraint names the repositories translate into domain conflicts.
const (
	IndexReservationSlot        = "uniq_reservation_active_slot"
	IndexReservationIdempotency = "uniq_reservation_idempotency"
	IndexBusinessSlug           = "idx_businesses_slug"
	IndexUserEmail              = "idx_users_email"
)
