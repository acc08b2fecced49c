package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// ChartCleaner removes chart images older than maxAge.
type ChartCleaner interface {
	Cleanup(maxAge time.Duration) (int, error)
}

// SessionExpirer drops sessions idle for longer than ttl.
type SessionExpirer interface {
	ExpireIdle(now time.Time, ttl time.Duration) int
}

// Config holds the housekeeping targets and limits. A zero retention or TTL
// disables that job.
type Config struct {
	Charts         ChartCleaner
	ChartRetention time.Duration

	Sessions       SessionExpirer
	SessionIdleTTL time.Duration

	// Interval between runs (default: 15m).
	Interval time.Duration

	Logger zerolog.Logger
}

// Scheduler periodically purges old chart images and abandoned sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       Config
	interval  time.Duration
}

// New creates a new Scheduler.
func New(cfg Config) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		interval:  interval,
	}
}

// Start schedules the housekeeping job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if !s.chartsEnabled() && !s.sessionsEnabled() {
		s.cfg.Logger.Info().Msg("scheduler: nothing to clean up; not started")
		return nil
	}

	if _, err := s.scheduler.Every(s.interval).Do(s.RunOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce runs one housekeeping pass.
func (s *Scheduler) RunOnce() {
	if s.chartsEnabled() {
		removed, err := s.cfg.Charts.Cleanup(s.cfg.ChartRetention)
		if err != nil {
			s.cfg.Logger.Warn().Err(err).Msg("scheduler: chart cleanup failed")
		} else if removed > 0 {
			s.cfg.Logger.Info().Int("removed", removed).Msg("scheduler: old charts removed")
		}
	}

	if s.sessionsEnabled() {
		if expired := s.cfg.Sessions.ExpireIdle(time.Now(), s.cfg.SessionIdleTTL); expired > 0 {
			s.cfg.Logger.Info().Int("expired", expired).Msg("scheduler: idle sessions expired")
		}
	}
}

func (s *Scheduler) chartsEnabled() bool {
	return s.cfg.Charts != nil && s.cfg.ChartRetention > 0
}

func (s *Scheduler) sessionsEnabled() bool {
	return s.cfg.Sessions != nil && s.cfg.SessionIdleTTL > 0
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
