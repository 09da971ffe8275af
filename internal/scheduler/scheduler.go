package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

const refreshTag = "refresh-all"

// Refresher re-fetches weather; an empty widgetID means every widget.
type Refresher interface {
	RefreshWeatherData(ctx context.Context, widgetID string) error
}

// Scheduler triggers an all-widget refresh every interval. The countdown
// restarts on Rearm, so a change to the widget list postpones the next run.
type Scheduler struct {
	mu        sync.Mutex
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// New creates a Scheduler. A non-positive interval falls back to the configured one.
func New(refresher Refresher, interval time.Duration, logger *zap.SugaredLogger) *Scheduler {
	if interval <= 0 {
		interval = config.GetRefreshInterval()
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens one interval from now.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scheduleLocked(); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Rearm drops the pending run and schedules a fresh one a full interval out.
func (s *Scheduler) Rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.scheduler.RemoveByTag(refreshTag)
	if err := s.scheduleLocked(); err != nil {
		s.logger.Errorw("Failed to re-arm refresh job", "error", err)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Stop()
	s.scheduler.Clear()
}

func (s *Scheduler) scheduleLocked() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Tag(refreshTag).Do(s.run)
	return err
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Debugw("Running scheduled refresh")
	if err := s.refresher.RefreshWeatherData(ctx, ""); err != nil {
		s.logger.Warnw("Scheduled refresh finished with errors", "error", err)
	}
}
