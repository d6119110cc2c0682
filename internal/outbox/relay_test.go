package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/infra/memory"
)

type fakeWriter struct {
	written []kafka.Message
	failAt  int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.failAt > 0 && len(w.written)+1 == w.failAt {
		return errors.New("broker unavailable")
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func seed(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ev, err := NewEvent(context.Background(), ReservationCreated, "res-1", map[string]int{"n": i})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.AppendEvent(context.Background(), ev); err != nil {
			t.Fatal(err)
		}
	}
}

func unpublished(store *memory.Store) int {
	n := 0
	for _, ev := range store.Outbox() {
		if ev.PublishedAt == nil {
			n++
		}
	}
	return n
}

func TestRelayPublishesAndMarks(t *testing.T) {
	store := memory.New()
	seed(t, store, 3)

	w := &fakeWriter{}
	relay := NewRelay(store, w, zap.NewNop(), RelayConfig{TopicPrefix: "rezervi.", BatchSize: 10})

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(w.written) != 3 {
		t.Fatalf("written = %d, want 3", len(w.written))
	}
	msg := w.written[0]
	if msg.Topic != "rezervi."+ReservationCreated {
		t.Errorf("topic = %q", msg.Topic)
	}
	if string(msg.Key) != "res-1" {
		t.Errorf("key = %q", msg.Key)
	}
	if got := unpublished(store); got != 0 {
		t.Errorf("unpublished = %d", got)
	}

	// Nothing left to send.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(w.written) != 3 {
		t.Errorf("republished events: %d", len(w.written))
	}
}

func TestRelayKeepsUnsentEventsOnFailure(t *testing.T) {
	store := memory.New()
	seed(t, store, 3)

	w := &fakeWriter{failAt: 2}
	relay := NewRelay(store, w, zap.NewNop(), RelayConfig{BatchSize: 10})

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatal("expected broker error")
	}
	if got := unpublished(store); got != 2 {
		t.Fatalf("unpublished = %d, want 2", got)
	}

	w.failAt = 0
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := unpublished(store); got != 0 {
		t.Fatalf("unpublished after retry = %d", got)
	}
}

func TestPurgeRemovesOldPublished(t *testing.T) {
	store := memory.New()
	seed(t, store, 2)

	relay := NewRelay(store, &fakeWriter{}, zap.NewNop(), RelayConfig{Retention: time.Hour})
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	relay.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := relay.Purge(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(store.Outbox()); n != 0 {
		t.Fatalf("outbox size = %d, want 0", n)
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	relay := NewRelay(memory.New(), &fakeWriter{}, zap.NewNop(), RelayConfig{})
	if _, err := NewScheduler(relay, zap.NewNop(), "every now and then"); err == nil {
		t.Fatal("expected invalid schedule error")
	}

	s, err := NewScheduler(relay, zap.NewNop(), "@every 1m")
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}

var _ Store = (*memory.Store)(nil)
