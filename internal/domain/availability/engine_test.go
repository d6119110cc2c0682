package availability

import (
	"reflect"
	"testing"
	"time"

	"github.com/rezervi/rezervi-api/internal/domain/calendar"
)

var monday = calendar.Date{Year: 2030, Month: 1, Day: 7}

func openAllWeek(start, end string) calendar.Calendar {
	var cal calendar.Calendar
	for wd := range cal.Weekly {
		cal.Weekly[wd] = calendar.DayRule{Open: true, Start: calendar.MustClock(start), End: calendar.MustClock(end)}
	}
	return cal
}

func policy() Policy {
	return Policy{
		SlotDurationMinutes:    60,
		BookingWindowDays:      30,
		MinAdvanceBookingHours: 0,
		MaxCapacityPerSlot:     1,
		Location:               time.UTC,
	}
}

func starts(slots []Slot) []string {
	out := []string{}
	for _, s := range slots {
		out = append(out, s.Time.String())
	}
	return out
}

func TestSlotsMinimumAdvanceIsInclusive(t *testing.T) {
	p := policy()
	p.SlotDurationMinutes = 30
	p.MinAdvanceBookingHours = 2
	now := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

	got := starts(Slots(p, openAllWeek("09:00", "13:00"), monday, nil, now))
	if want := []string{"12:00", "12:30"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestSlotsWindowIsInclusive(t *testing.T) {
	p := policy()
	p.BookingWindowDays = 1
	now := time.Date(2030, 1, 6, 10, 0, 0, 0, time.UTC)

	got := starts(Slots(p, openAllWeek("09:00", "12:00"), monday, nil, now))
	if want := []string{"09:00", "10:00"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestSlotsCapacity(t *testing.T) {
	p := policy()
	p.MaxCapacityPerSlot = 2
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	bookings := []Booking{
		{Date: "2030-01-07", Start: "09:00", Status: "confirmed"},
		{Date: "2030-01-07", Start: "09:00", Status: "pending"},
		{Date: "2030-01-07", Start: "10:00", Status: "completed"},
		{Date: "2030-01-07", Start: "10:00", Status: "cancelled"},
		{Date: "2030-01-07", Start: "11:00", Status: "cancelled"},
		{Date: "2030-01-08", Start: "11:00", Status: "confirmed"},
	}

	slots := Slots(p, openAllWeek("09:00", "12:00"), monday, bookings, now)
	got := map[string]int{}
	for _, s := range slots {
		got[s.Time.String()] = s.CapacityRemaining
	}
	if want := map[string]int{"10:00": 1, "11:00": 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("remaining = %v, want %v", got, want)
	}
}

func TestSlotsTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Skopje")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	p := policy()
	p.Location = loc
	p.MinAdvanceBookingHours = 1

	// 08:00 UTC is 09:00 in Skopje in winter.
	now := time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)
	got := starts(Slots(p, openAllWeek("09:00", "12:00"), monday, nil, now))
	if want := []string{"10:00", "11:00"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestSlotsIsIdempotent(t *testing.T) {
	p := policy()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	bookings := []Booking{{Date: "2030-01-07", Start: "10:00", Status: "pending"}}
	cal := openAllWeek("08:00", "18:00")

	first := Slots(p, cal, monday, bookings, now)
	for i := 0; i < 5; i++ {
		if got := Slots(p, cal, monday, bookings, now); !reflect.DeepEqual(got, first) {
			t.Fatalf("read %d differs", i)
		}
	}
}

func TestSlotsEdgeCases(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	closed := Slots(policy(), calendar.Calendar{}, monday, nil, now)
	if closed == nil || len(closed) != 0 {
		t.Fatalf("closed day = %#v", closed)
	}

	p := policy()
	p.MaxCapacityPerSlot = 0
	if got := Slots(p, openAllWeek("09:00", "12:00"), monday, nil, now); len(got) != 0 {
		t.Fatalf("zero capacity = %v", got)
	}

	past := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := Slots(policy(), openAllWeek("09:00", "12:00"), monday, nil, past); len(got) != 0 {
		t.Fatalf("past date = %v", got)
	}
}

func TestFind(t *testing.T) {
	slots := []Slot{{Time: calendar.MustClock("09:00")}, {Time: calendar.MustClock("10:00")}}
	if _, ok := Find(slots, calendar.MustClock("10:00")); !ok {
		t.Error("10:00 not found")
	}
	if _, ok := Find(slots, calendar.MustClock("09:30")); ok {
		t.Error("09:30 found")
	}
}
