package calendar

import (
	"fmt"
	"time"

	"github.com/rezervi/rezervi-api/internal/models"
)

// DayRule is the resolved opening rule for one day.
type DayRule struct {
	Open  bool
	Start Clock
	End   Clock
}

var Closed = DayRule{}

type SpecialRule struct {
	Date Date
	Rule DayRule
	Note string
}

// Calendar is a weekly schedule plus date overrides.
type Calendar struct {
	Weekly  [7]DayRule
	Special []SpecialRule
}

// Resolve returns the rule for date. An override for the exact date wins over
// the weekday rule.
func (c Calendar) Resolve(date Date) DayRule {
	for _, s := range c.Special {
		if s.Date == date {
			return s.Rule
		}
	}
	return c.Weekly[date.Weekday()]
}

// IsOpenAt reports whether t falls inside the resolved opening hours of its
// own date, in t's location.
func (c Calendar) IsOpenAt(t time.Time) bool {
	rule := c.Resolve(DateOf(t))
	if !rule.Open {
		return false
	}
	clock := ClockOf(t)
	return clock >= rule.Start && clock < rule.End
}

func (c Calendar) Validate() error {
	for wd, r := range c.Weekly {
		if r.Open && r.Start >= r.End {
			return fmt.Errorf("%s: open %s must be before close %s", time.Weekday(wd), r.Start, r.End)
		}
	}

	seen := make(map[Date]bool, len(c.Special))
	for _, s := range c.Special {
		if seen[s.Date] {
			return fmt.Errorf("%s: duplicate special date", s.Date)
		}
		seen[s.Date] = true
		if s.Rule.Open && s.Rule.Start >= s.Rule.End {
			return fmt.Errorf("%s: open %s must be before close %s", s.Date, s.Rule.Start, s.Rule.End)
		}
	}
	return nil
}

// FromBusiness builds the calendar from the stored weekly hours and special
// dates. Weekdays without a row are closed.
func FromBusiness(b *models.Business) (Calendar, error) {
	var cal Calendar

	for _, wh := range b.WorkingHours {
		if wh.Weekday < 0 || wh.Weekday > 6 {
			return Calendar{}, fmt.Errorf("weekday %d out of range", wh.Weekday)
		}
		rule, err := parseRule(wh.Enabled, wh.Open, wh.Close)
		if err != nil {
			return Calendar{}, fmt.Errorf("%s: %w", time.Weekday(wh.Weekday), err)
		}
		cal.Weekly[wh.Weekday] = rule
	}

	for _, sd := range b.SpecialDates {
		date, err := ParseDate(sd.Date)
		if err != nil {
			return Calendar{}, err
		}
		rule, err := parseRule(!sd.Closed, sd.Open, sd.Close)
		if err != nil {
			return Calendar{}, fmt.Errorf("%s: %w", sd.Date, err)
		}
		cal.Special = append(cal.Special, SpecialRule{Date: date, Rule: rule, Note: sd.Note})
	}

	return cal, nil
}

func parseRule(open bool, start, end string) (DayRule, error) {
	if !open {
		return Closed, nil
	}
	s, err := ParseStart(start)
	if err != nil {
		return DayRule{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return DayRule{}, err
	}
	return DayRule{Open: true, Start: s, End: e}, nil
}
