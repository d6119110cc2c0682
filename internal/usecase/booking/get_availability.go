package booking

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/domain/availability"
	"github.com/rezervi/rezervi-api/internal/domain/calendar"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/metrics"
)

type Availability struct {
	Date  string
	Slots []availability.Slot
}

type GetAvailability struct {
	d Deps
}

func NewGetAvailability(d Deps) *GetAvailability {
	return &GetAvailability{d: d.withDefaults()}
}

// Execute lists the bookable slots of one day. A failure to read occupancy
// degrades to an empty list; a missing business is still an error.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	businessID uuid.UUID,
	dateStr string,
) (res *Availability, err error) {

	ctx, span := startSpan(ctx, "booking.GetAvailability",
		attribute.String("business.id", businessID.String()),
		attribute.String("date", dateStr),
	)
	defer func() { endSpan(span, err) }()

	date, err := calendar.ParseDate(dateStr)
	if err != nil {
		return nil, httperr.InvalidField("date", "must be a date in YYYY-MM-DD format")
	}

	biz, err := uc.d.Repo.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	empty := &Availability{Date: date.String(), Slots: []availability.Slot{}}

	cal, err := calendar.FromBusiness(biz)
	if err != nil {
		uc.d.Log.Warn("stored calendar is invalid", zap.Stringer("business_id", biz.ID), zap.Error(err))
		metrics.AvailabilityReads.WithLabelValues(metrics.SourceDegraded).Inc()
		return empty, nil
	}

	bookings, gen, hit := uc.d.Occupancy.Get(ctx, biz.ID, date.String())
	if hit {
		metrics.AvailabilityReads.WithLabelValues(metrics.SourceCache).Inc()
	} else {
		existing, err := uc.d.Repo.ListForDate(ctx, biz.ID, date.String())
		if err != nil {
			uc.d.Log.Warn("availability degraded: occupancy read failed",
				zap.Stringer("business_id", biz.ID),
				zap.String("date", date.String()),
				zap.Error(err),
			)
			metrics.AvailabilityReads.WithLabelValues(metrics.SourceDegraded).Inc()
			return empty, nil
		}
		bookings = availability.BookingsOf(existing)
		uc.d.Occupancy.Set(ctx, biz.ID, date.String(), gen, bookings)
		metrics.AvailabilityReads.WithLabelValues(metrics.SourceStore).Inc()
	}

	slots := availability.Slots(
		availability.PolicyFor(biz, uc.d.location(biz)),
		cal,
		date,
		bookings,
		uc.d.Now(),
	)
	span.SetAttributes(attribute.Int("slots", len(slots)))

	return &Availability{Date: date.String(), Slots: slots}, nil
}
