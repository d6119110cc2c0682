package calendar

import (
	"testing"
	"time"

	"github.com/rezervi/rezervi-api/internal/models"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"00:00", Midnight, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", EndOfDay, false},
		{"24:01", 0, true},
		{"9:30", 0, true},
		{"09:60", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
			t.Errorf("ParseClock(%q) = %v, %v", tt.in, got, err)
		}
	}

	if _, err := ParseStart("24:00"); err == nil {
		t.Error("ParseStart accepted 24:00")
	}
	if got := MustClock("07:05").String(); got != "07:05" {
		t.Errorf("String() = %s", got)
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2030-01-31")
	if err != nil {
		t.Fatal(err)
	}
	if d.Weekday() != time.Thursday {
		t.Errorf("weekday = %s", d.Weekday())
	}
	if got := d.AddDays(1).String(); got != "2030-02-01" {
		t.Errorf("AddDays = %s", got)
	}
	if !d.Before(d.AddDays(1)) || d.AddDays(1).Before(d) {
		t.Error("Before is wrong")
	}
	if _, err := ParseDate("2030-02-30"); err == nil {
		t.Error("accepted 2030-02-30")
	}

	first, next := MonthRange(2030, time.December)
	if first.String() != "2030-12-01" || next.String() != "2031-01-01" {
		t.Errorf("MonthRange = %s, %s", first, next)
	}

	loc, _ := time.LoadLocation("Europe/Skopje")
	at := d.At(MustClock("09:15"), loc)
	if at.Hour() != 9 || at.Minute() != 15 || at.Location() != loc {
		t.Errorf("At = %v", at)
	}
}

func TestResolveSpecialWins(t *testing.T) {
	monday := Date{Year: 2030, Month: 1, Day: 7}

	var cal Calendar
	cal.Weekly[time.Monday] = DayRule{Open: true, Start: MustClock("09:00"), End: MustClock("17:00")}
	cal.Special = []SpecialRule{{Date: monday, Rule: Closed}}

	if cal.Resolve(monday).Open {
		t.Error("special closed date should win")
	}
	if !cal.Resolve(monday.AddDays(7)).Open {
		t.Error("next monday should follow the weekly rule")
	}
	if !cal.IsOpenAt(monday.AddDays(7).At(MustClock("16:59"), time.UTC)) {
		t.Error("16:59 should be open")
	}
	if cal.IsOpenAt(monday.AddDays(7).At(MustClock("17:00"), time.UTC)) {
		t.Error("close time is exclusive")
	}
}

func TestValidate(t *testing.T) {
	var cal Calendar
	cal.Weekly[1] = DayRule{Open: true, Start: MustClock("12:00"), End: MustClock("09:00")}
	if cal.Validate() == nil {
		t.Error("inverted hours accepted")
	}

	cal = Calendar{}
	d := Date{Year: 2030, Month: 5, Day: 1}
	cal.Special = []SpecialRule{{Date: d, Rule: Closed}, {Date: d, Rule: Closed}}
	if cal.Validate() == nil {
		t.Error("duplicate special date accepted")
	}
}

func TestFromBusiness(t *testing.T) {
	b := &models.Business{
		WorkingHours: []models.WorkingHours{
			{Weekday: 1, Enabled: true, Open: "09:00", Close: "24:00"},
			{Weekday: 2, Enabled: false, Open: "09:00", Close: "17:00"},
		},
		SpecialDates: []models.SpecialDate{
			{Date: "2030-01-01", Closed: true, Note: "new year"},
		},
	}

	cal, err := FromBusiness(b)
	if err != nil {
		t.Fatal(err)
	}
	if r := cal.Weekly[1]; !r.Open || r.End != EndOfDay {
		t.Errorf("monday = %+v", r)
	}
	if cal.Weekly[2].Open || cal.Weekly[3].Open {
		t.Error("disabled and missing days must be closed")
	}
	if len(cal.Special) != 1 || cal.Special[0].Note != "new year" {
		t.Errorf("special = %+v", cal.Special)
	}

	b.WorkingHours[0].Open = "24:00"
	if _, err := FromBusiness(b); err == nil {
		t.Error("24:00 accepted as an opening time")
	}
}
