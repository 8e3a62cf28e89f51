// Package runtime runs the background maintenance loops of the application,
// currently the periodic refresh of dashboard insight prompts.
package runtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sasa-gamer47/mindclone/session"
)

// Scheduler refreshes the session's cached insight prompts on a schedule so
// the dashboard stays current as the collection changes.
type Scheduler struct {
	sess     *session.Session
	schedule Schedule
	logger   zerolog.Logger
}

// NewScheduler creates a scheduler from a schedule string (cron expression
// or Go duration).
func NewScheduler(sess *session.Session, schedule string, logger zerolog.Logger) (*Scheduler, error) {
	parsed, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		sess:     sess,
		schedule: parsed,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start runs the refresh loop until the context is cancelled. The first
// refresh happens immediately so the dashboard is never empty on startup.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Msg("Starting insight refresh loop")

	s.refresh(ctx)

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("Scheduler stopped: context cancelled")
			return
		case <-timer.C:
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	start := time.Now()
	insights := s.sess.RefreshInsights(ctx)
	s.logger.Debug().
		Int("count", len(insights)).
		Dur("elapsed", time.Since(start)).
		Msg("Refreshed insight prompts")
}
