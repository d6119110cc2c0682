package availability

import (
	"time"

	"github.com/rezervi/rezervi-api/internal/domain/calendar"
	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/domain/slot"
	"github.com/rezervi/rezervi-api/internal/models"
)

// Policy is the subset of business settings that shapes availability.
type Policy struct {
	SlotDurationMinutes    int
	BufferTimeMinutes      int
	BookingWindowDays      int
	MinAdvanceBookingHours int
	MaxCapacityPerSlot     int
	Location               *time.Location
}

func PolicyFor(b *models.Business, loc *time.Location) Policy {
	return Policy{
		SlotDurationMinutes:    b.SlotDurationMinutes,
		BufferTimeMinutes:      b.BufferTimeMinutes,
		BookingWindowDays:      b.BookingWindowDays,
		MinAdvanceBookingHours: b.MinAdvanceBookingHours,
		MaxCapacityPerSlot:     b.MaxCapacityPerSlot,
		Location:               loc,
	}
}

// Booking is the part of a reservation that occupies capacity. It carries no
// customer data so it can be cached.
type Booking struct {
	Date   string `json:"d"`
	Start  string `json:"t"`
	Status string `json:"s"`
}

func BookingOf(r models.Reservation) Booking {
	return Booking{Date: r.Date, Start: r.StartTime, Status: r.Status}
}

func BookingsOf(rs []models.Reservation) []Booking {
	out := make([]Booking, 0, len(rs))
	for _, r := range rs {
		out = append(out, BookingOf(r))
	}
	return out
}

type Slot struct {
	Time              calendar.Clock
	End               calendar.Clock
	CapacityRemaining int
}

// Slots returns the bookable slots of date, ascending by time.
//
// A candidate must start no earlier than now+MinAdvanceBookingHours and no
// later than now+BookingWindowDays, both bounds inclusive, and must have fewer
// non-cancelled bookings than MaxCapacityPerSlot.
func Slots(p Policy, cal calendar.Calendar, date calendar.Date, bookings []Booking, now time.Time) []Slot {
	out := []Slot{}

	candidates := slot.Generate(cal, date, p.SlotDurationMinutes, p.BufferTimeMinutes)
	if len(candidates) == 0 || p.MaxCapacityPerSlot < 1 {
		return out
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	earliest := now.Add(time.Duration(p.MinAdvanceBookingHours) * time.Hour)
	latest := now.Add(time.Duration(p.BookingWindowDays) * 24 * time.Hour)

	taken := occupancy(bookings, date.String())

	for _, start := range candidates {
		at := date.At(start, loc)
		if at.Before(earliest) || at.After(latest) {
			continue
		}

		remaining := p.MaxCapacityPerSlot - taken[start.String()]
		if remaining <= 0 {
			continue
		}

		out = append(out, Slot{
			Time:              start,
			End:               start.Add(p.SlotDurationMinutes),
			CapacityRemaining: remaining,
		})
	}
	return out
}

// Find returns the slot starting at clock, if it is available.
func Find(slots []Slot, clock calendar.Clock) (Slot, bool) {
	for _, s := range slots {
		if s.Time == clock {
			return s, true
		}
	}
	return Slot{}, false
}

func occupancy(bookings []Booking, date string) map[string]int {
	taken := make(map[string]int)
	for _, b := range bookings {
		if b.Date != date || reservation.Status(b.Status) == reservation.StatusCancelled {
			continue
		}
		taken[b.Start]++
	}
	return taken
}
