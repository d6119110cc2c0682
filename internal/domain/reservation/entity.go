package reservation

import (
	"time"

	"github.com/rezervi/rezervi-api/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Apply moves r to the target status and stamps the matching timestamps. It
// assumes the transition was already checked.
func Apply(r *models.Reservation, to Status, actor Actor, now time.Time) {
	from := Status(r.Status)
	r.Status = string(to)

	switch to {
	case StatusConfirmed:
		r.ConfirmedAt = &now
		if from == StatusCancelled {
			r.CancelledAt = nil
			r.CancelledBy = ""
		}
	case StatusCompleted:
		r.CompletedAt = &now
	case StatusCancelled:
		r.CancelledAt = &now
		r.CancelledBy = string(actor)
	}
}

// FreeOrdinal returns the lowest capacity position in 1..capacity not held by
// a non-cancelled reservation in active.
func FreeOrdinal(active []models.Reservation, capacity int) (int, bool) {
	used := make(map[int]bool, len(active))
	for _, r := range active {
		if Status(r.Status) != StatusCancelled {
			used[r.SlotOrdinal] = true
		}
	}
	for n := 1; n <= capacity; n++ {
		if !used[n] {
			return n, true
		}
	}
	return 0, false
}
