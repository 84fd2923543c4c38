package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"dealerpix/api/internal/config"
)

// Scheduler periodically asks the worker fleet to reconcile orphaned blobs
// and dangling metadata rows against the orphan set. The API only records
// candidates and enqueues; the sweep itself runs elsewhere.
type Scheduler struct {
	cron  *cron.Cron
	queue *redis.Client
	cfg   config.SweepConfig
	log   zerolog.Logger
}

func NewScheduler(queue *redis.Client, cfg config.SweepConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		queue: queue,
		cfg:   cfg,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.enqueueSweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits briefly for an in-flight enqueue to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) enqueueSweep() {
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: s.cfg.Stream,
		Values: map[string]any{
			"type":      "orphan_sweep",
			"orphanSet": s.cfg.OrphanSet,
		},
	}).Result()
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue sweep failed")
	}
}
