package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/domain/availability"
	"github.com/rezervi/rezervi-api/internal/domain/calendar"
	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

// admit re-runs availability for (date, start) on reservations read inside
// tx and returns the capacity position a new reservation may take. The caller
// must hold the slot lock.
func (d Deps) admit(
	ctx context.Context,
	tx reservation.Repository,
	biz *models.Business,
	date calendar.Date,
	start calendar.Clock,
) (int, availability.Slot, error) {

	cal, err := calendar.FromBusiness(biz)
	if err != nil {
		d.Log.Warn("stored calendar is invalid", zap.Stringer("business_id", biz.ID), zap.Error(err))
		return 0, availability.Slot{}, httperr.SlotUnavailable()
	}

	existing, err := tx.ListForDate(ctx, biz.ID, date.String())
	if err != nil {
		return 0, availability.Slot{}, err
	}

	slots := availability.Slots(
		availability.PolicyFor(biz, d.location(biz)),
		cal,
		date,
		availability.BookingsOf(existing),
		d.Now(),
	)
	slot, ok := availability.Find(slots, start)
	if !ok {
		return 0, availability.Slot{}, httperr.SlotUnavailable()
	}

	sameStart := make([]models.Reservation, 0, len(existing))
	for _, r := range existing {
		if r.StartTime == start.String() {
			sameStart = append(sameStart, r)
		}
	}
	ordinal, ok := reservation.FreeOrdinal(sameStart, biz.MaxCapacityPerSlot)
	if !ok {
		return 0, availability.Slot{}, httperr.SlotUnavailable()
	}
	return ordinal, slot, nil
}

func parseSlot(date, start string) (calendar.Date, calendar.Clock, error) {
	fields := map[string]string{}

	d, err := calendar.ParseDate(date)
	if err != nil {
		fields["date"] = "must be a date in YYYY-MM-DD format"
	}
	c, err := calendar.ParseStart(start)
	if err != nil {
		fields["time"] = "must be a time in HH:MM format"
	}

	if len(fields) > 0 {
		return calendar.Date{}, 0, httperr.Validation("invalid slot", fields)
	}
	return d, c, nil
}
