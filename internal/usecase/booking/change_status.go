package booking

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/audit"
	"github.com/rezervi/rezervi-api/internal/domain/calendar"
	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/metrics"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/outbox"
)

type ChangeStatusInput struct {
	ReservationID uuid.UUID
	Status        string
	Principal     Principal
}

type ChangeStatus struct {
	d Deps
}

func NewChangeStatus(d Deps) *ChangeStatus {
	return &ChangeStatus{d: d.withDefaults()}
}

func (uc *ChangeStatus) Execute(
	ctx context.Context,
	in ChangeStatusInput,
) (res *models.Reservation, err error) {

	ctx, span := startSpan(ctx, "booking.ChangeStatus",
		attribute.String("reservation.id", in.ReservationID.String()),
		attribute.String("status.to", in.Status),
	)
	from, toLabel := "unknown", "invalid"
	defer func() {
		metrics.StatusTransitions.WithLabelValues(from, toLabel, outcomeOf(err, false)).Inc()
		endSpan(span, err)
	}()

	to, err := reservation.ParseStatus(in.Status)
	if err != nil {
		return nil, httperr.InvalidField("status", "must be one of: pending confirmed completed cancelled")
	}
	toLabel = string(to)

	txCtx, cancel := context.WithTimeout(ctx, uc.d.TxTimeout)
	defer cancel()

	var (
		updated *models.Reservation
		actor   reservation.Actor
	)
	err = uc.d.Repo.WithinTx(txCtx, func(tx reservation.Repository) error {
		r, err := tx.GetForUpdate(txCtx, in.ReservationID)
		if err != nil {
			return err
		}
		from = r.Status

		actor, err = actorFor(in.Principal, r)
		if err != nil {
			return err
		}

		biz, err := tx.GetBusiness(txCtx, r.BusinessID)
		if err != nil {
			return err
		}

		now := uc.d.Now()
		date, start, err := storedSlot(r)
		if err != nil {
			return err
		}
		if err := uc.d.Policy.Check(
			reservation.Status(r.Status), to, actor,
			date.At(start, uc.d.location(biz)), now,
		); err != nil {
			return err
		}

		// Reactivation takes capacity back, so it goes through admission
		// like a new booking.
		if reservation.RequiresAdmission(reservation.Status(r.Status), to) {
			if err := tx.LockSlot(txCtx, biz.ID, r.Date, r.StartTime); err != nil {
				return err
			}
			ordinal, _, err := uc.d.admit(txCtx, tx, biz, date, start)
			if err != nil {
				return err
			}
			r.SlotOrdinal = ordinal
		}

		prev := r.Status
		reservation.Apply(r, to, actor, now)
		if err := tx.Update(txCtx, r); err != nil {
			return err
		}

		ev, err := outbox.NewEvent(txCtx, outbox.ReservationStatusChanged, r.ID.String(), statusChanged{
			ReservationID: r.ID,
			BusinessID:    r.BusinessID,
			From:          prev,
			To:            r.Status,
			Actor:         string(actor),
			OccurredAt:    now,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(txCtx, ev); err != nil {
			return err
		}

		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.d.Occupancy.Invalidate(ctx, updated.BusinessID, updated.Date)

	uc.d.dispatch(audit.Event{
		BusinessID: updated.BusinessID,
		ActorID:    &in.Principal.UserID,
		Action:     "reservation_" + updated.Status,
		Entity:     "reservation",
		EntityID:   updated.ID.String(),
		Metadata: map[string]string{
			"from":  from,
			"to":    updated.Status,
			"actor": string(actor),
		},
	})

	uc.d.Log.Info("reservation status changed",
		zap.Stringer("reservation_id", updated.ID),
		zap.String("from", from),
		zap.String("to", updated.Status),
		zap.String("actor", string(actor)),
	)
	return updated, nil
}

// storedSlot parses the slot columns of a persisted reservation.
func storedSlot(r *models.Reservation) (calendar.Date, calendar.Clock, error) {
	date, err := calendar.ParseDate(r.Date)
	if err != nil {
		return calendar.Date{}, 0, httperr.Persistence("parse stored date", err)
	}
	start, err := calendar.ParseStart(r.StartTime)
	if err != nil {
		return calendar.Date{}, 0, httperr.Persistence("parse stored time", err)
	}
	return date, start, nil
}
