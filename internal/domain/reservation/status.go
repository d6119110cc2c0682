package reservation

import (
	"fmt"
	"time"

	"github.com/rezervi/rezervi-api/internal/httperr"
)

// ===============================
// Reservation Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// InitialStatus is the status a freshly admitted booking starts in.
func InitialStatus(autoConfirm bool) Status {
	if autoConfirm {
		return StatusConfirmed
	}
	return StatusPending
}

// ===============================
// Actors
// ===============================

type Actor string

const (
	ActorBusiness Actor = "business"
	ActorCustomer Actor = "customer"
)

// ===============================
// Transitions
// ===============================

type transition struct {
	from   Status
	to     Status
	actors []Actor
}

var transitions = []transition{
	{StatusPending, StatusConfirmed, []Actor{ActorBusiness}},
	{StatusPending, StatusCancelled, []Actor{ActorBusiness, ActorCustomer}},
	{StatusConfirmed, StatusCompleted, []Actor{ActorBusiness}},
	{StatusConfirmed, StatusCancelled, []Actor{ActorBusiness, ActorCustomer}},
	{StatusCancelled, StatusConfirmed, []Actor{ActorBusiness}},
}

// CanTransition checks the table only. Time-based rules live in Policy.
func CanTransition(from, to Status, actor Actor) error {
	for _, t := range transitions {
		if t.from != from || t.to != to {
			continue
		}
		for _, a := range t.actors {
			if a == actor {
				return nil
			}
		}
		return httperr.InvalidTransition(string(from), string(to), fmt.Sprintf("not allowed for %s", actor))
	}
	return httperr.InvalidTransition(string(from), string(to), "")
}

// RequiresAdmission reports whether the transition takes capacity back and
// must pass the admission check again.
func RequiresAdmission(from, to Status) bool {
	return from == StatusCancelled && to == StatusConfirmed
}

// ===============================
// Policy
// ===============================

type Policy struct {
	// CustomerCancelCutoff is how long before the appointment a customer may
	// still cancel a confirmed reservation.
	CustomerCancelCutoff time.Duration
}

func DefaultPolicy() Policy {
	return Policy{CustomerCancelCutoff: 24 * time.Hour}
}

// Check validates a transition for actor, given when the appointment starts.
func (p Policy) Check(from, to Status, actor Actor, appointmentAt, now time.Time) error {
	if err := CanTransition(from, to, actor); err != nil {
		return err
	}

	if actor == ActorCustomer && from == StatusConfirmed && to == StatusCancelled {
		if now.After(appointmentAt.Add(-p.CustomerCancelCutoff)) {
			return httperr.InvalidTransition(string(from), string(to), "cancellation_cutoff_passed")
		}
	}
	return nil
}
