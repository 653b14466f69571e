// Package scheduler runs the periodic fleet refresh.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Refresher is the unit of scheduled work.
type Refresher interface {
	RefreshFleet(ctx context.Context) int
}

// Scheduler triggers fleet refreshes on a cron spec, plus one immediate
// run at startup so a fresh deployment does not wait a full interval for
// its first data.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	logger    *zerolog.Logger
}

// New creates a scheduler around the given refresher.
func New(refresher Refresher, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		logger:    logger,
	}
}

// Start registers the refresh job under spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	go s.run()
	return nil
}

// Stop halts the cron loop. Jobs already running are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) run() {
	s.logger.Info().Msg("starting fleet refresh")
	count := s.refresher.RefreshFleet(context.Background())
	s.logger.Info().Int("clinics", count).Msg("fleet refresh complete")
}
