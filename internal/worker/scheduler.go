package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/opensupport/helpdesk/internal/config"
	"github.com/opensupport/helpdesk/internal/service"
)

// Scheduler runs the recurring-task sweep on a cron cadence. Each
// sweep rolls completed recurring tasks into their next occurrence.
type Scheduler struct {
	cron   *cron.Cron
	tasks  *service.TaskService
	cfg    config.SchedulerConfig
	logger *zap.Logger
}

// NewScheduler constructs the scheduler without starting it.
func NewScheduler(tasks *service.TaskService, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		tasks:  tasks,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the sweep job and begins ticking. No-op when the
// scheduler is disabled in config.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.SweepSpec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("sweep_spec", s.cfg.SweepSpec))
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rolled, err := s.tasks.RollRecurring(ctx, time.Now())
	if err != nil {
		s.logger.Error("recurring task sweep", zap.Error(err))
		return
	}
	if rolled > 0 {
		s.logger.Info("recurring tasks rolled", zap.Int("count", rolled))
	}
}
