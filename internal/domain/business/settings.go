package business

import (
	"github.com/rezervi/rezervi-api/internal/domain/calendar"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/timezone"
)

var Types = []models.BusinessType{
	models.BusinessBarbershop,
	models.BusinessSalon,
	models.BusinessRestaurant,
	models.BusinessClinic,
	models.BusinessSpa,
	models.BusinessFitness,
	models.BusinessOther,
}

// ValidateSettings enforces the appointment setting invariants.
func ValidateSettings(b *models.Business) error {
	fields := map[string]string{}

	if b.SlotDurationMinutes <= 0 {
		fields["slot_duration_minutes"] = "must be greater than 0"
	}
	if b.BufferTimeMinutes < 0 {
		fields["buffer_time_minutes"] = "must not be negative"
	}
	if b.BookingWindowDays < 1 {
		fields["booking_window_days"] = "must be at least 1"
	}
	if b.MinAdvanceBookingHours < 0 {
		fields["min_advance_booking_hours"] = "must not be negative"
	}
	if b.MaxCapacityPerSlot < 1 {
		fields["max_capacity_per_slot"] = "must be at least 1"
	}
	if b.Timezone != "" && !timezone.IsValid(b.Timezone) {
		fields["timezone"] = "unknown timezone"
	}
	if !validType(b.Type) {
		fields["type"] = "unknown business type"
	}

	if len(fields) > 0 {
		return httperr.Validation("invalid business settings", fields)
	}
	return nil
}

// ValidateCalendar checks the stored hours and overrides form a valid calendar.
func ValidateCalendar(b *models.Business) error {
	cal, err := calendar.FromBusiness(b)
	if err != nil {
		return httperr.Validation("invalid working hours", map[string]string{"hours": err.Error()})
	}
	if err := cal.Validate(); err != nil {
		return httperr.Validation("invalid working hours", map[string]string{"hours": err.Error()})
	}
	return nil
}

func validType(t models.BusinessType) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}
