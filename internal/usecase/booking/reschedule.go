package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/audit"
	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/metrics"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/outbox"
)

type RescheduleInput struct {
	ReservationID uuid.UUID
	Date          string
	Time          string
	Principal     Principal
}

type Reschedule struct {
	d Deps
}

func NewReschedule(d Deps) *Reschedule {
	return &Reschedule{d: d.withDefaults()}
}

// Execute cancels the reservation and books the new slot in one transaction.
// If the new slot cannot be admitted nothing changes.
func (uc *Reschedule) Execute(
	ctx context.Context,
	in RescheduleInput,
) (res *models.Reservation, err error) {

	ctx, span := startSpan(ctx, "booking.Reschedule",
		attribute.String("reservation.id", in.ReservationID.String()),
		attribute.String("slot", in.Date+" "+in.Time),
	)
	started := time.Now()
	defer func() {
		metrics.BookingDuration.WithLabelValues("reschedule").Observe(time.Since(started).Seconds())
		endSpan(span, err)
	}()

	date, start, err := parseSlot(in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, uc.d.TxTimeout)
	defer cancel()

	var (
		old, next *models.Reservation
		actor     reservation.Actor
	)
	err = uc.d.Repo.WithinTx(txCtx, func(tx reservation.Repository) error {
		r, err := tx.GetForUpdate(txCtx, in.ReservationID)
		if err != nil {
			return err
		}
		actor, err = actorFor(in.Principal, r)
		if err != nil {
			return err
		}
		if r.Date == date.String() && r.StartTime == start.String() {
			return httperr.InvalidField("time", "must differ from the current slot")
		}

		biz, err := tx.GetBusiness(txCtx, r.BusinessID)
		if err != nil {
			return err
		}

		now := uc.d.Now()
		oldDate, oldStart, err := storedSlot(r)
		if err != nil {
			return err
		}
		prev := reservation.Status(r.Status)
		if err := uc.d.Policy.Check(
			prev, reservation.StatusCancelled, actor,
			oldDate.At(oldStart, uc.d.location(biz)), now,
		); err != nil {
			return err
		}

		reservation.Apply(r, reservation.StatusCancelled, actor, now)
		if err := tx.Update(txCtx, r); err != nil {
			return err
		}

		if err := tx.LockSlot(txCtx, biz.ID, date.String(), start.String()); err != nil {
			return err
		}
		ordinal, slot, err := uc.d.admit(txCtx, tx, biz, date, start)
		if err != nil {
			return err
		}

		fromID := r.ID
		n := &models.Reservation{
			BusinessID:        r.BusinessID,
			CustomerID:        r.CustomerID,
			CustomerName:      r.CustomerName,
			CustomerPhone:     r.CustomerPhone,
			CustomerEmail:     r.CustomerEmail,
			Date:              date.String(),
			StartTime:         slot.Time.String(),
			EndTime:           slot.End.String(),
			SlotOrdinal:       ordinal,
			Status:            string(prev),
			PaymentMethod:     r.PaymentMethod,
			PaymentStatus:     r.PaymentStatus,
			Notes:             r.Notes,
			RescheduledFromID: &fromID,
		}
		if prev == reservation.StatusConfirmed {
			n.ConfirmedAt = &now
		}
		if err := tx.Create(txCtx, n); err != nil {
			return err
		}

		ev, err := outbox.NewEvent(txCtx, outbox.ReservationRescheduled, n.ID.String(), rescheduled{
			ReservationID:     n.ID,
			RescheduledFromID: r.ID,
			BusinessID:        n.BusinessID,
			FromDate:          r.Date,
			FromTime:          r.StartTime,
			Date:              n.Date,
			StartTime:         n.StartTime,
			Status:            n.Status,
			Actor:             string(actor),
			OccurredAt:        now,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(txCtx, ev); err != nil {
			return err
		}

		old, next = r, n
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.d.Occupancy.Invalidate(ctx, next.BusinessID, old.Date, next.Date)

	uc.d.dispatch(audit.Event{
		BusinessID: next.BusinessID,
		ActorID:    &in.Principal.UserID,
		Action:     "reservation_rescheduled",
		Entity:     "reservation",
		EntityID:   next.ID.String(),
		Metadata: map[string]string{
			"from_id":   old.ID.String(),
			"from_slot": old.Date + " " + old.StartTime,
			"to_slot":   next.Date + " " + next.StartTime,
			"actor":     string(actor),
		},
	})

	uc.d.Log.Info("reservation rescheduled",
		zap.Stringer("reservation_id", next.ID),
		zap.Stringer("rescheduled_from_id", old.ID),
		zap.String("date", next.Date),
		zap.String("time", next.StartTime),
	)
	return next, nil
}
