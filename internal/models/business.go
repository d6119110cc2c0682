package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessType string

const (
	BusinessBarbershop BusinessType = "barbershop"
	BusinessSalon      BusinessType = "salon"
	BusinessRestaurant BusinessType = "restaurant"
	BusinessClinic     BusinessType = "clinic"
	BusinessSpa        BusinessType = "spa"
	BusinessFitness    BusinessType = "fitness"
	BusinessOther      BusinessType = "other"
)

type Business struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`

	Name    string       `gorm:"size:100;not null" json:"name"`
	Slug    string       `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Type    BusinessType `gorm:"size:20;not null;default:'other'" json:"type"`
	Phone   string       `gorm:"size:20" json:"phone"`
	Address string       `gorm:"size:255" json:"address"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Timezone string `gorm:"size:64" json:"timezone"`

	// Appointment settings
	SlotDurationMinutes    int  `gorm:"not null;default:30" json:"slot_duration_minutes"`
	BufferTimeMinutes      int  `gorm:"not null;default:0" json:"buffer_time_minutes"`
	BookingWindowDays      int  `gorm:"not null;default:30" json:"booking_window_days"`
	MinAdvanceBookingHours int  `gorm:"not null;default:2" json:"min_advance_booking_hours"`
	MaxCapacityPerSlot     int  `gorm:"not null;default:1" json:"max_capacity_per_slot"`
	AutoConfirm            bool `gorm:"not null;default:false" json:"auto_confirm"`

	WorkingHours []WorkingHours `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"working_hours"`
	SpecialDates []SpecialDate  `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"special_dates"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Business) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
