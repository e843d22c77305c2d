// Package scheduler ticks the dispatch loop on a fixed interval. Passes are
// serialized: a tick that arrives while a pass is still running is skipped,
// never queued, so long campaigns cannot pile up overlapping passes.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/service"
)

type PassRunner interface {
	RunDuePass(ctx context.Context, now time.Time) (service.PassResult, error)
}

type Scheduler struct {
	cron    *cron.Cron
	service PassRunner
	log     *logger.Logger
	busy    atomic.Bool
}

func New(svc PassRunner, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		service: svc,
		log:     log.WithComponent("scheduler"),
	}
}

// Start schedules a dispatch pass every interval. The ctx bounds every pass;
// cancelling it interrupts the running pass between sends.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)
	_, err := s.cron.AddFunc(spec, func() {
		if !s.busy.CompareAndSwap(false, true) {
			s.log.Warn().Msg("previous dispatch pass still running, skipping tick")
			return
		}
		defer s.busy.Store(false)

		if _, err := s.service.RunDuePass(ctx, time.Now().UTC()); err != nil {
			s.log.Error().Err(err).Msg("dispatch pass failed")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling dispatch pass: %w", err)
	}

	s.cron.Start()
	s.log.Info().Dur("interval", interval).Msg("dispatch scheduler started")
	return nil
}

// Stop halts ticking and waits for an in-flight pass to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("dispatch scheduler stopped")
}
