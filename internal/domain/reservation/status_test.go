package reservation

import (
	"errors"
	"testing"
	"time"

	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

var (
	allStatuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}
	allActors   = []Actor{ActorBusiness, ActorCustomer}
)

func TestCanTransitionTable(t *testing.T) {
	allowed := map[Status]map[Status][]Actor{
		StatusPending: {
			StatusConfirmed: {ActorBusiness},
			StatusCancelled: {ActorBusiness, ActorCustomer},
		},
		StatusConfirmed: {
			StatusCompleted: {ActorBusiness},
			StatusCancelled: {ActorBusiness, ActorCustomer},
		},
		StatusCancelled: {
			StatusConfirmed: {ActorBusiness},
		},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			for _, actor := range allActors {
				want := false
				for _, a := range allowed[from][to] {
					if a == actor {
						want = true
					}
				}

				err := CanTransition(from, to, actor)
				if want && err != nil {
					t.Errorf("%s -> %s by %s: unexpected %v", from, to, actor, err)
				}
				if !want && !httperr.IsInvalidTransition(err) {
					t.Errorf("%s -> %s by %s: err = %v, want invalid transition", from, to, actor, err)
				}
			}
		}
	}
}

func TestTerminalStatesOnlyReactivate(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		if !from.Terminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range allStatuses {
			for _, actor := range allActors {
				ok := CanTransition(from, to, actor) == nil
				reactivate := from == StatusCancelled && to == StatusConfirmed && actor == ActorBusiness
				if ok != reactivate {
					t.Errorf("%s -> %s by %s allowed=%v", from, to, actor, ok)
				}
			}
		}
	}
	if !RequiresAdmission(StatusCancelled, StatusConfirmed) || RequiresAdmission(StatusPending, StatusConfirmed) {
		t.Error("RequiresAdmission is wrong")
	}
}

func TestPolicyCustomerCutoff(t *testing.T) {
	p := DefaultPolicy()
	appt := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		from   Status
		actor  Actor
		now    time.Time
		reason string
	}{
		{"well before", StatusConfirmed, ActorCustomer, appt.Add(-48 * time.Hour), ""},
		{"exactly at cutoff", StatusConfirmed, ActorCustomer, appt.Add(-24 * time.Hour), ""},
		{"after cutoff", StatusConfirmed, ActorCustomer, appt.Add(-23 * time.Hour), "cancellation_cutoff_passed"},
		{"business ignores cutoff", StatusConfirmed, ActorBusiness, appt.Add(-time.Hour), ""},
		{"pending ignores cutoff", StatusPending, ActorCustomer, appt.Add(-time.Hour), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Check(tt.from, StatusCancelled, tt.actor, appt, tt.now)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("unexpected %v", err)
				}
				return
			}
			var terr *httperr.InvalidTransitionError
			if !errors.As(err, &terr) || terr.Reason != tt.reason {
				t.Fatalf("err = %v, want reason %s", err, tt.reason)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("confirmed"); err != nil || s != StatusConfirmed {
		t.Fatalf("ParseStatus = %s, %v", s, err)
	}
	if _, err := ParseStatus("Confirmed"); err == nil {
		t.Fatal("status parsing is case sensitive")
	}
	if InitialStatus(true) != StatusConfirmed || InitialStatus(false) != StatusPending {
		t.Fatal("InitialStatus is wrong")
	}
}

func TestApply(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	r := &models.Reservation{Status: string(StatusConfirmed)}

	Apply(r, StatusCancelled, ActorCustomer, now)
	if r.Status != "cancelled" || r.CancelledAt == nil || r.CancelledBy != "customer" {
		t.Fatalf("after cancel %+v", r)
	}

	Apply(r, StatusConfirmed, ActorBusiness, now)
	if r.CancelledAt != nil || r.CancelledBy != "" || r.ConfirmedAt == nil {
		t.Fatalf("after reactivation %+v", r)
	}

	Apply(r, StatusCompleted, ActorBusiness, now)
	if r.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}
}

func TestFreeOrdinal(t *testing.T) {
	active := []models.Reservation{
		{SlotOrdinal: 1, Status: "confirmed"},
		{SlotOrdinal: 2, Status: "cancelled"},
		{SlotOrdinal: 3, Status: "pending"},
	}
	if n, ok := FreeOrdinal(active, 3); !ok || n != 2 {
		t.Fatalf("FreeOrdinal = %d, %v", n, ok)
	}
	active[1].Status = "completed"
	if _, ok := FreeOrdinal(active, 3); ok {
		t.Fatal("full slot reported a free ordinal")
	}
}
