package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"nickname-notifier/internal/metrics"
)

// SessionSweeper drops expired dialogue sessions.
type SessionSweeper interface {
	Sweep() int
	Len() int
}

// SchedulerService runs the housekeeping jobs of the notifier.
type SchedulerService struct {
	cron *cron.Cron
	log  *slog.Logger
}

func NewSchedulerService(loc *time.Location, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log: log,
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", slog.Int("jobs", s.Entries()))
}

// Stop halts the scheduler and waits for a running job until ctx is done.
func (s *SchedulerService) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}

// ScheduleSweep drops expired sessions every interval and publishes the
// number of live sessions.
func (s *SchedulerService) ScheduleSweep(interval time.Duration, sessions SessionSweeper) (cron.EntryID, error) {
	return s.ScheduleInterval(interval, func() {
		if n := sessions.Sweep(); n > 0 {
			s.log.Info("expired sessions dropped", slog.Int("count", n))
		}
		metrics.ActiveSessions.Set(float64(sessions.Len()))
	})
}

// ScheduleInterval runs job every interval, rounded to whole seconds.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := max(int(interval.Seconds()), 1)
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

// Entries returns the number of registered jobs.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}
