package timezone

import (
	"sync"
	"time"
)

// DefaultTimezone is used when neither the business nor the configuration
// names a valid zone.
const DefaultTimezone = "UTC"

// time.LoadLocation reads the zone database on every call.
var zones sync.Map

func load(tz string) (*time.Location, bool) {
	if tz == "" {
		return nil, false
	}
	if loc, ok := zones.Load(tz); ok {
		return loc.(*time.Location), true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, false
	}
	zones.Store(tz, loc)
	return loc, true
}

func IsValid(tz string) bool {
	_, ok := load(tz)
	return ok
}

// Resolve returns the first valid zone of tz and fallback, or UTC.
func Resolve(tz, fallback string) *time.Location {
	if loc, ok := load(tz); ok {
		return loc
	}
	if loc, ok := load(fallback); ok {
		return loc
	}
	return time.UTC
}
