// Package scheduler drives the batch pipeline on cron expressions: one
// full daily pass after the US close, plus an optional lighter intraday
// pass. Runs never overlap; an invocation that lands while another run
// is in flight is skipped, not queued.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/pxilabs/pxi/internal/config"
	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/pipeline"
)

// Scheduler owns the cron loop around the pipeline.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	config   config.ScheduleConfig
	running  atomic.Bool
}

// New builds a scheduler; Start registers the jobs and begins the loop.
func New(p *pipeline.Pipeline, cfg config.ScheduleConfig) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		pipeline: p,
		config:   cfg,
	}
}

// Start registers the configured jobs and starts the cron loop. The
// context bounds each pipeline run, not the loop itself.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.config.Daily, func() { s.runOnce(ctx, "daily") }); err != nil {
		return fmt.Errorf("register daily job %q: %w", s.config.Daily, err)
	}
	if s.config.IntradayEnabled {
		if _, err := s.cron.AddFunc(s.config.Intraday, func() { s.runOnce(ctx, "intraday") }); err != nil {
			return fmt.Errorf("register intraday job %q: %w", s.config.Intraday, err)
		}
	}
	s.cron.Start()
	log.Info().Str("daily", s.config.Daily).
		Bool("intraday", s.config.IntradayEnabled).
		Msg("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context, job string) {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Str("job", job).Msg("previous run still in flight; skipping")
		return
	}
	defer s.running.Store(false)

	date := time.Now().UTC()
	if _, err := s.pipeline.Run(ctx, date); err != nil {
		log.Error().Err(err).Str("job", job).
			Str("date", domain.DateKey(date)).
			Msg("scheduled pipeline run failed")
	}
}
