package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

func codeOf(err error) string {
	var c httperr.Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"slot index", &pgconn.PgError{Code: "23505", ConstraintName: models.IndexReservationSlot}, "slot_unavailable"},
		{"idempotency index", &pgconn.PgError{Code: "23505", ConstraintName: models.IndexReservationIdempotency}, "duplicate_idempotency_key"},
		{"slug", &pgconn.PgError{Code: "23505", ConstraintName: models.IndexBusinessSlug}, "slug_taken"},
		{"email", &pgconn.PgError{Code: "23505", ConstraintName: models.IndexUserEmail}, "email_taken"},
		{"exclusion", &pgconn.PgError{Code: "23P01"}, "slot_unavailable"},
		{"serialization", &pgconn.PgError{Code: "40001"}, "concurrent_update"},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, "concurrent_update"},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, "concurrent_update"},
		{"wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), "slot_unavailable"},
		{"other pg error", &pgconn.PgError{Code: "08006"}, "persistence_error"},
		{"context", context.DeadlineExceeded, "persistence_error"},
		{"already classified", httperr.NotFound("business"), "business_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)
			if tt.err == nil {
				if err != nil {
					t.Fatalf("classify(nil) = %v", err)
				}
				return
			}
			if got := codeOf(err); got != tt.want {
				t.Fatalf("code = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	if !httperr.IsNotFound(notFound("reservation", "get", gorm.ErrRecordNotFound)) {
		t.Fatal("record not found should map to NotFound")
	}
	if !httperr.IsPersistence(notFound("reservation", "get", errors.New("conn reset"))) {
		t.Fatal("driver errors should map to Persistence")
	}
}
