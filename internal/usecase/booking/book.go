package booking

import (
	"context"
	"errors"
	"strings"
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

// ======================================================
// INPUT
// ======================================================

type CustomerInfo struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"omitempty,email,max=100"`
}

type BookInput struct {
	BusinessID uuid.UUID  `json:"-" validate:"-"`
	CustomerID *uuid.UUID `json:"-" validate:"-"`

	Date          string       `json:"date" validate:"required,isodate"`
	Time          string       `json:"time" validate:"required,hhmm"`
	Customer      CustomerInfo `json:"customer"`
	PaymentMethod string       `json:"payment_method" validate:"omitempty,oneof=cash card online"`
	Notes         string       `json:"notes" validate:"max=255"`

	IdempotencyKey string `json:"-" validate:"-"`
}

// ======================================================
// USE CASE
// ======================================================

type Book struct {
	d Deps
}

func NewBook(d Deps) *Book {
	return &Book{d: d.withDefaults()}
}

// Execute admits one booking. replayed is true when the idempotency key
// matched an earlier booking, which is returned unchanged.
func (uc *Book) Execute(
	ctx context.Context,
	in BookInput,
) (res *models.Reservation, replayed bool, err error) {

	ctx, span := startSpan(ctx, "booking.Book",
		attribute.String("business.id", in.BusinessID.String()),
		attribute.String("slot", in.Date+" "+in.Time),
	)
	started := time.Now()
	defer func() {
		metrics.BookingDuration.WithLabelValues("book").Observe(time.Since(started).Seconds())
		metrics.BookingAttempts.WithLabelValues(outcomeOf(err, replayed)).Inc()
		endSpan(span, err)
	}()

	// --------------------------------------------------
	// 1. Input
	// --------------------------------------------------
	if err := uc.d.Validator.Struct(in); err != nil {
		return nil, false, err
	}
	if len(in.IdempotencyKey) > 100 {
		return nil, false, httperr.InvalidField("idempotency_key", "must be at most 100 characters")
	}
	date, start, err := parseSlot(in.Date, in.Time)
	if err != nil {
		return nil, false, err
	}
	phone, _ := uc.d.Validator.NormalizePhone(in.Customer.Phone)
	payment := in.PaymentMethod
	if payment == "" {
		payment = "cash"
	}

	// --------------------------------------------------
	// 2. Admission, bounded by the transaction timeout
	// --------------------------------------------------
	txCtx, cancel := context.WithTimeout(ctx, uc.d.TxTimeout)
	defer cancel()

	var created *models.Reservation
	err = uc.d.Repo.WithinTx(txCtx, func(tx reservation.Repository) error {
		if err := tx.LockSlot(txCtx, in.BusinessID, date.String(), start.String()); err != nil {
			return err
		}

		// Looked up under the lock so a retry racing its original sees it.
		if in.IdempotencyKey != "" {
			prior, err := tx.FindByIdempotencyKey(txCtx, in.BusinessID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if prior != nil {
				created, replayed = prior, true
				return nil
			}
		}

		biz, err := tx.GetBusiness(txCtx, in.BusinessID)
		if err != nil {
			return err
		}

		ordinal, slot, err := uc.d.admit(txCtx, tx, biz, date, start)
		if err != nil {
			return err
		}

		now := uc.d.Now()
		r := &models.Reservation{
			BusinessID:    biz.ID,
			CustomerID:    in.CustomerID,
			CustomerName:  strings.TrimSpace(in.Customer.Name),
			CustomerPhone: phone,
			CustomerEmail: strings.TrimSpace(in.Customer.Email),
			Date:          date.String(),
			StartTime:     slot.Time.String(),
			EndTime:       slot.End.String(),
			SlotOrdinal:   ordinal,
			Status:        string(reservation.InitialStatus(biz.AutoConfirm)),
			PaymentMethod: payment,
			PaymentStatus: "unpaid",
			Notes:         strings.TrimSpace(in.Notes),
		}
		if r.Status == string(reservation.StatusConfirmed) {
			r.ConfirmedAt = &now
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			r.IdempotencyKey = &key
		}
		if err := tx.Create(txCtx, r); err != nil {
			return err
		}

		ev, err := outbox.NewEvent(txCtx, outbox.ReservationCreated, r.ID.String(), createdPayload(r, now))
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(txCtx, ev); err != nil {
			return err
		}

		created = r
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !httperr.IsPersistence(err) {
			err = httperr.Persistence("book", err)
		}
		return nil, false, err
	}
	if replayed {
		return created, true, nil
	}

	// --------------------------------------------------
	// 3. After commit
	// --------------------------------------------------
	uc.d.Occupancy.Invalidate(ctx, created.BusinessID, created.Date)

	uc.d.dispatch(audit.Event{
		BusinessID: created.BusinessID,
		ActorID:    in.CustomerID,
		Action:     "reservation_created",
		Entity:     "reservation",
		EntityID:   created.ID.String(),
		Metadata: map[string]string{
			"date":   created.Date,
			"time":   created.StartTime,
			"status": created.Status,
		},
	})

	uc.d.Log.Info("reservation created",
		zap.Stringer("reservation_id", created.ID),
		zap.Stringer("business_id", created.BusinessID),
		zap.String("date", created.Date),
		zap.String("time", created.StartTime),
		zap.Int("ordinal", created.SlotOrdinal),
	)
	return created, false, nil
}

func outcomeOf(err error, replayed bool) string {
	switch {
	case err == nil && replayed:
		return metrics.OutcomeReplayed
	case err == nil:
		return metrics.OutcomeOK
	case httperr.IsConflict(err):
		return metrics.OutcomeConflict
	case httperr.IsValidation(err), httperr.IsNotFound(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
