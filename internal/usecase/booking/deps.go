package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/audit"
	"github.com/rezervi/rezervi-api/internal/cache"
	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/telemetry"
	"github.com/rezervi/rezervi-api/internal/timezone"
	"github.com/rezervi/rezervi-api/internal/validators"
)

// Deps is what every booking use case shares.
type Deps struct {
	Repo      reservation.Repository
	Occupancy cache.Occupancy
	Audit     *audit.Dispatcher
	Validator *validators.Validator
	Log       *zap.Logger

	Policy          reservation.Policy
	TxTimeout       time.Duration
	DefaultTimezone string

	// Now is the clock; tests pin it.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Occupancy == nil {
		d.Occupancy = cache.Noop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Validator == nil {
		d.Validator = validators.New([]string{"US"})
	}
	if d.TxTimeout <= 0 {
		d.TxTimeout = 5 * time.Second
	}
	if d.DefaultTimezone == "" {
		d.DefaultTimezone = timezone.DefaultTimezone
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) location(b *models.Business) *time.Location {
	return timezone.Resolve(b.Timezone, d.DefaultTimezone)
}

func (d Deps) dispatch(ev audit.Event) {
	if d.Audit != nil {
		d.Audit.Dispatch(ev)
	}
}

// ======================================================
// Principal
// ======================================================

// Principal is the authenticated caller. BusinessID is set for owners.
type Principal struct {
	UserID     uuid.UUID
	Role       string
	BusinessID *uuid.UUID
}

// actorFor resolves which side of the reservation the caller acts for.
func actorFor(p Principal, r *models.Reservation) (reservation.Actor, error) {
	if p.Role == models.RoleOwner && p.BusinessID != nil && *p.BusinessID == r.BusinessID {
		return reservation.ActorBusiness, nil
	}
	if r.CustomerID != nil && *r.CustomerID == p.UserID {
		return reservation.ActorCustomer, nil
	}
	return "", errForbidden
}

// ======================================================
// Tracing
// ======================================================

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return telemetry.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
