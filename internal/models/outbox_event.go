package models

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and relayed to the broker afterwards.
type OutboxEvent struct {
	ID uint `gorm:"primaryKey"`

	EventID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	AggregateID string    `gorm:"size:64;not null"`
	EventType   string    `gorm:"size:100;not null"`
	Payload     []byte    `gorm:"type:jsonb;not null"`

	Traceparent string `gorm:"size:64"`
	Tracestate  string `gorm:"size:255"`

	CreatedAt   time.Time  `gorm:"index"`
	PublishedAt *time.Time `gorm:"index"`
}
