// Package jobs runs the periodic background work of the server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"vocabsrs/internal/metrics"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Notifier delivers due-card reminders
type Notifier interface {
	NotifyDue(learnerID int64, dueCount int) error
}

// Digester counts due cards per learner
type Digester interface {
	DueDigest(ctx context.Context) (map[int64]int, error)
}

// Sweeper drops idle review sessions
type Sweeper interface {
	ExpireIdle(now time.Time, maxIdle time.Duration) int
}

// Collector reclaims store space
type Collector interface {
	RunGC() error
}

// Config controls job timing
type Config struct {
	Location *time.Location
	// ReminderHour is the local hour of the daily reminder; negative disables it
	ReminderHour       int
	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration
	GCInterval         time.Duration
}

// DefaultConfig returns the timings used when configuration leaves them unset
func DefaultConfig() Config {
	return Config{
		Location:           time.UTC,
		ReminderHour:       9,
		SessionIdleTimeout: 30 * time.Minute,
		SweepInterval:      5 * time.Minute,
		GCInterval:         10 * time.Minute,
	}
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       Config
	logger    *zap.Logger

	digest   Digester
	notifier Notifier
	sweeper  Sweeper
	gc       Collector

	now func() time.Time
}

// New creates a new scheduler instance
func New(cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := gocron.NewScheduler(cfg.Location)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithReminders enables the daily due-card reminder
func (s *Scheduler) WithReminders(digest Digester, notifier Notifier) *Scheduler {
	s.digest = digest
	s.notifier = notifier
	return s
}

// WithSessionSweep enables expiry of idle bot sessions
func (s *Scheduler) WithSessionSweep(sweeper Sweeper) *Scheduler {
	s.sweeper = sweeper
	return s
}

// WithGC enables periodic store garbage collection
func (s *Scheduler) WithGC(gc Collector) *Scheduler {
	s.gc = gc
	return s
}

// Start registers the enabled jobs and runs them in the background
func (s *Scheduler) Start() error {
	if s.digest != nil && s.notifier != nil && s.cfg.ReminderHour >= 0 {
		at := fmt.Sprintf("%02d:00", s.cfg.ReminderHour)
		if _, err := s.scheduler.Every(1).Day().At(at).WaitForSchedule().Do(func() { s.SendReminders() }); err != nil {
			return fmt.Errorf("schedule reminders: %w", err)
		}
		s.logger.Info("Reminder job scheduled", zap.String("at", at), zap.Stringer("location", s.cfg.Location))
	}

	if s.sweeper != nil && s.cfg.SweepInterval > 0 && s.cfg.SessionIdleTimeout > 0 {
		if _, err := s.scheduler.Every(s.cfg.SweepInterval).WaitForSchedule().Do(func() { s.SweepSessions() }); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	if s.gc != nil && s.cfg.GCInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.GCInterval).WaitForSchedule().Do(s.CollectGarbage); err != nil {
			return fmt.Errorf("schedule gc: %w", err)
		}
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// JobCount reports how many jobs are registered
func (s *Scheduler) JobCount() int {
	return len(s.scheduler.Jobs())
}

// SendReminders notifies every learner with cards due today and returns
// how many reminders went out
func (s *Scheduler) SendReminders() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	digest, err := s.digest.DueDigest(ctx)
	if err != nil {
		s.logger.Error("Failed to compute due digest", zap.Error(err))
		return 0
	}

	sent := 0
	for learnerID, count := range digest {
		if err := s.notifier.NotifyDue(learnerID, count); err != nil {
			metrics.Reminders.WithLabelValues("failed").Inc()
			s.logger.Warn("Failed to send reminder",
				zap.Int64("learner_id", learnerID),
				zap.Error(err),
			)
			continue
		}
		metrics.Reminders.WithLabelValues("sent").Inc()
		sent++
	}

	s.logger.Info("Reminders sent", zap.Int("sent", sent), zap.Int("learners", len(digest)))
	return sent
}

// SweepSessions expires sessions idle longer than the configured timeout
func (s *Scheduler) SweepSessions() int {
	expired := s.sweeper.ExpireIdle(s.now(), s.cfg.SessionIdleTimeout)
	if expired > 0 {
		s.logger.Info("Idle sessions expired", zap.Int("count", expired))
	}
	return expired
}

// CollectGarbage runs one store garbage collection pass
func (s *Scheduler) CollectGarbage() {
	if err := s.gc.RunGC(); err != nil {
		s.logger.Warn("Store garbage collection failed", zap.Error(err))
	}
}
