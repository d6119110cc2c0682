package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkingHours is the recurring rule for one weekday (0 = Sunday).
type WorkingHours struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	BusinessID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_working_hours_day" json:"-"`

	Weekday int    `gorm:"uniqueIndex:idx_working_hours_day" json:"weekday"`
	Enabled bool   `json:"enabled"`
	Open    string `gorm:"size:5" json:"open"`
	Close   string `gorm:"size:5" json:"close"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// SpecialDate overrides the weekly rule for one calendar date.
type SpecialDate struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	BusinessID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_special_date_day" json:"-"`

	Date   string `gorm:"size:10;uniqueIndex:idx_special_date_day" json:"date"`
	Closed bool   `json:"closed"`
	Open   string `gorm:"size:5" json:"open,omitempty"`
	Close  string `gorm:"size:5" json:"close,omitempty"`
	Note   string `gorm:"size:255" json:"note,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
