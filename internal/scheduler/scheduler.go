// Package scheduler runs the recurring billing jobs on cron schedules. It
// must be enabled on exactly one replica; the jobs assume a single active
// scheduler instance.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/pkg/config"
	"github.com/rently/rently-api/pkg/logger"
)

// Scheduler owns the cron runner and the three recurring jobs: the daily
// billing batch, the daily accounting reconciliation and the monthly mortgage
// interest posting.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

// New registers the jobs on their configured specs.
func New(
	cfg config.SchedulerConfig,
	orchestrator *billing.Orchestrator,
	sweeper *billing.ReconciliationSweeper,
	mortgage *billing.MortgagePostingJob,
	log *logger.Logger,
) (*Scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(cfg.BillingSpec, func() {
		ctx := context.Background()
		if err := orchestrator.ProcessAllAgreements(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled billing run failed")
		}
		if err := orchestrator.ProcessAllBusinessAgreements(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled business billing run failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("register billing job: %w", err)
	}

	_, err = c.AddFunc(cfg.SyncSpec, func() {
		if err := sweeper.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("scheduled reconciliation run failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("register reconciliation job: %w", err)
	}

	_, err = c.AddFunc(cfg.MortgageSpec, func() {
		if err := mortgage.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("scheduled mortgage posting failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("register mortgage job: %w", err)
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}
