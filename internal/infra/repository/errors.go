package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

const (
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// classify turns a driver error into the domain taxonomy. Errors that are
// already classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var coded httperr.Coded
	if errors.As(err, &coded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueConflict(pgErr.ConstraintName)
		case pgExclusionViolation:
			return httperr.SlotUnavailable()
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return httperr.Conflict("concurrent_update", "The slot is being booked by someone else. Please retry.")
		}
	}

	return httperr.Persistence(op, err)
}

func uniqueConflict(constraint string) error {
	switch constraint {
	case models.IndexReservationIdempotency:
		return httperr.Conflict("duplicate_idempotency_key", "Idempotency key already used.")
	case models.IndexBusinessSlug:
		return httperr.Conflict("slug_taken", "Slug already in use.")
	case models.IndexUserEmail:
		return httperr.Conflict("email_taken", "Email already registered.")
	default:
		return httperr.SlotUnavailable()
	}
}

// notFound maps gorm's missing-row error to a NotFound for resource.
func notFound(resource, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.NotFound(resource)
	}
	return classify(op, err)
}
