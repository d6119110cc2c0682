package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/outbox"
)

func TestChangeStatusOwnerFlow(t *testing.T) {
	f := newFixture(t)
	r := f.mustBook(monday, "09:00")

	confirmed, err := f.setStatus(r.ID, "confirmed", f.owner)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.ConfirmedAt == nil {
		t.Fatal("confirmed_at not stamped")
	}

	completed, err := f.setStatus(r.ID, "completed", f.owner)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}

	for _, to := range []string{"pending", "confirmed", "cancelled"} {
		if _, err := f.setStatus(r.ID, to, f.owner); !httperr.IsInvalidTransition(err) {
			t.Errorf("completed -> %s err = %v, want invalid transition", to, err)
		}
	}

	var changed int
	for _, ev := range f.store.Outbox() {
		if ev.EventType == outbox.ReservationStatusChanged {
			changed++
		}
	}
	if changed != 2 {
		t.Fatalf("status events = %d, want 2", changed)
	}
}

func TestChangeStatusCustomer(t *testing.T) {
	f := newFixture(t)
	c := customer()
	r := f.bookAs(c, monday, "09:00")

	if _, err := f.setStatus(r.ID, "confirmed", c); !httperr.IsInvalidTransition(err) {
		t.Fatalf("customer confirm err = %v, want invalid transition", err)
	}

	cancelled, err := f.setStatus(r.ID, "cancelled", c)
	if err != nil {
		t.Fatalf("customer cancel pending: %v", err)
	}
	if cancelled.CancelledBy != "customer" || cancelled.CancelledAt == nil {
		t.Fatalf("cancelled_by %q at %v", cancelled.CancelledBy, cancelled.CancelledAt)
	}
}

func TestChangeStatusCustomerCutoff(t *testing.T) {
	f := newFixture(t, withAutoConfirm())
	c := customer()

	// Booked 23h ahead: inside the 24h cutoff.
	late := f.bookAs(c, monday, "09:00")
	_, err := f.setStatus(late.ID, "cancelled", c)
	var terr *httperr.InvalidTransitionError
	if !errors.As(err, &terr) || terr.Reason != "cancellation_cutoff_passed" {
		t.Fatalf("err = %v, want cutoff", err)
	}
	if _, err := f.setStatus(late.ID, "cancelled", f.owner); err != nil {
		t.Fatalf("owner cancel inside cutoff: %v", err)
	}

	// Exactly 24h ahead is still allowed.
	f.now = time.Date(2030, 1, 6, 11, 0, 0, 0, time.UTC)
	ontime := f.bookAs(c, "2030-01-07", "11:00")
	if _, err := f.setStatus(ontime.ID, "cancelled", c); err != nil {
		t.Fatalf("cancel at cutoff: %v", err)
	}
}

func TestChangeStatusForbidden(t *testing.T) {
	f := newFixture(t)
	r := f.bookAs(customer(), monday, "09:00")

	if _, err := f.setStatus(r.ID, "cancelled", customer()); !httperr.IsForbidden(err) {
		t.Fatalf("stranger err = %v, want forbidden", err)
	}

	other := newFixture(t)
	if _, err := f.setStatus(r.ID, "confirmed", other.owner); !httperr.IsForbidden(err) {
		t.Fatalf("other owner err = %v, want forbidden", err)
	}
}

func TestChangeStatusInvalidInput(t *testing.T) {
	f := newFixture(t)
	r := f.mustBook(monday, "09:00")

	if _, err := f.setStatus(r.ID, "archived", f.owner); !httperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	if _, err := f.setStatus(r.ID, "pending", f.owner); !httperr.IsInvalidTransition(err) {
		t.Fatalf("pending -> pending err = %v, want invalid transition", err)
	}
}

func TestReactivationRequiresCapacity(t *testing.T) {
	f := newFixture(t)

	a := f.mustBook(monday, "10:00")
	if _, err := f.setStatus(a.ID, "cancelled", f.owner); err != nil {
		t.Fatal(err)
	}
	b := f.mustBook(monday, "10:00")

	if _, err := f.setStatus(a.ID, "confirmed", f.owner); !httperr.IsConflict(err) {
		t.Fatalf("reactivate into full slot err = %v, want conflict", err)
	}
	if got := f.reservation(a.ID).Status; got != "cancelled" {
		t.Fatalf("a status = %s, want cancelled", got)
	}

	if _, err := f.setStatus(b.ID, "cancelled", f.owner); err != nil {
		t.Fatal(err)
	}
	re, err := f.setStatus(a.ID, "confirmed", f.owner)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if re.CancelledAt != nil || re.CancelledBy != "" {
		t.Fatalf("reactivation kept cancel stamps: %v %q", re.CancelledAt, re.CancelledBy)
	}
}
