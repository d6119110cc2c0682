package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the relay and the retention purge on cron schedules.
type Scheduler struct {
	cron  *cron.Cron
	relay *Relay
	log   *zap.Logger
}

func NewScheduler(relay *Relay, log *zap.Logger, relaySpec string) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, relay: relay, log: log}

	if _, err := c.AddFunc(relaySpec, s.relayJob); err != nil {
		return nil, fmt.Errorf("outbox schedule %q: %w", relaySpec, err)
	}
	if _, err := c.AddFunc("@hourly", s.purgeJob); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("outbox scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) relayJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.relay.RunOnce(ctx); err != nil {
		s.log.Error("outbox relay failed", zap.Error(err))
	}
}

func (s *Scheduler) purgeJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.relay.Purge(ctx); err != nil {
		s.log.Error("outbox purge failed", zap.Error(err))
	}
}
