package slot

import "github.com/rezervi/rezervi-api/internal/domain/calendar"

// Generate returns the candidate start times for date, ascending.
//
// Starts are spaced by duration+buffer from the opening time and a start is
// emitted only if the whole appointment fits before closing. A closed day or a
// non-positive duration yields an empty slice.
func Generate(cal calendar.Calendar, date calendar.Date, durationMinutes, bufferMinutes int) []calendar.Clock {
	out := []calendar.Clock{}

	rule := cal.Resolve(date)
	if !rule.Open || durationMinutes <= 0 {
		return out
	}
	if bufferMinutes < 0 {
		bufferMinutes = 0
	}

	step := durationMinutes + bufferMinutes
	for start := rule.Start; start.Add(durationMinutes) <= rule.End; start = start.Add(step) {
		out = append(out, start)
	}
	return out
}
