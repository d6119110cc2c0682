package outbox

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/metrics"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/telemetry"
)

// Store hands out unpublished events under a lock and records which ones
// were published.
type Store interface {
	RelayBatch(ctx context.Context, limit int, fn func([]models.OutboxEvent) ([]uint, error)) error
	PurgePublished(ctx context.Context, before time.Time) (int64, error)
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}

type RelayConfig struct {
	TopicPrefix string
	BatchSize   int
	Retention   time.Duration
}

type Relay struct {
	store  Store
	writer Writer
	log    *zap.Logger
	cfg    RelayConfig
	now    func() time.Time
}

func NewRelay(store Store, writer Writer, log *zap.Logger, cfg RelayConfig) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		store:  store,
		writer: writer,
		log:    log,
		cfg:    cfg,
		now:    time.Now,
	}
}

// RunOnce relays one batch. Events written before a broker failure are still
// marked published; the rest are retried on the next run.
func (r *Relay) RunOnce(ctx context.Context) error {
	return r.store.RelayBatch(ctx, r.cfg.BatchSize, func(events []models.OutboxEvent) ([]uint, error) {
		published := make([]uint, 0, len(events))
		for _, ev := range events {
			if err := r.writer.WriteMessages(ctx, r.message(ctx, ev)); err != nil {
				metrics.OutboxPublished.WithLabelValues(metrics.ResultPublishError).Inc()
				return published, err
			}
			metrics.OutboxPublished.WithLabelValues(metrics.ResultPublished).Inc()
			published = append(published, ev.ID)
		}
		if len(published) > 0 {
			r.log.Debug("outbox batch relayed", zap.Int("count", len(published)))
		}
		return published, nil
	})
}

func (r *Relay) Purge(ctx context.Context) error {
	removed, err := r.store.PurgePublished(ctx, r.now().Add(-r.cfg.Retention))
	if err != nil {
		return err
	}
	if removed > 0 {
		r.log.Info("outbox purged", zap.Int64("removed", removed))
	}
	return nil
}

func (r *Relay) message(ctx context.Context, ev models.OutboxEvent) kafka.Message {
	msg := kafka.Message{
		Topic: r.cfg.TopicPrefix + ev.EventType,
		Key:   []byte(ev.AggregateID),
		Value: ev.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.EventID.String())},
			{Key: "event_type", Value: []byte(ev.EventType)},
		},
	}
	msgCtx := telemetry.ContextWithTraceContext(ctx, ev.Traceparent, ev.Tracestate)
	carrier := &headerCarrier{headers: msg.Headers}
	otel.GetTextMapPropagator().Inject(msgCtx, carrier)
	msg.Headers = carrier.headers
	return msg
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
