package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/telemetry"
)

// Event types. The broker topic is the configured prefix plus the type.
const (
	ReservationCreated       = "reservation.created.v1"
	ReservationStatusChanged = "reservation.status_changed.v1"
	ReservationRescheduled   = "reservation.rescheduled.v1"
)

// NewEvent builds an outbox row carrying the trace context of ctx.
func NewEvent(ctx context.Context, eventType, aggregateID string, payload any) (*models.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	traceparent, tracestate := telemetry.TraceContext(ctx)

	return &models.OutboxEvent{
		EventID:     uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     body,
		Traceparent: traceparent,
		Tracestate:  tracestate,
	}, nil
}
