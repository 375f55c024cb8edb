package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cronTickerInterval is the interval at which the trigger checks the clock
const cronTickerInterval = 1 * time.Minute

// ErrTriggerNotRunning is returned when a manual run is requested while
// the trigger is stopped
var ErrTriggerNotRunning = errors.New("daily trigger is not running")

// Job is a unit of scheduled work. Run must handle its own failures; the
// trigger never inspects the outcome.
type Job interface {
	Run(ctx context.Context)
}

// DailyTriggerConfig holds configuration for the daily report trigger
type DailyTriggerConfig struct {
	// Hour is the hour (0-23) to fire the daily run
	Hour int
	// Minute is the minute (0-59) to fire the daily run
	Minute int
}

// DailyTrigger fires a job once per day at a configured wall-clock time.
// It polls the clock every minute rather than sleeping until the target,
// so clock adjustments and suspends cannot skip a day silently.
type DailyTrigger struct {
	config DailyTriggerConfig
	job    Job
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunDate string
	lastRunAt   *time.Time
	nextRunAt   *time.Time
}

// NewDailyTrigger creates a new daily trigger
func NewDailyTrigger(config DailyTriggerConfig, job Job, logger *zap.Logger) *DailyTrigger {
	return &DailyTrigger{
		config: config,
		job:    job,
		logger: logger,
	}
}

// Start starts the trigger loop
func (t *DailyTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.calculateNextRunTime()

	t.wg.Add(1)
	go t.loop(ctx)

	t.logger.Info("daily trigger started",
		zap.Int("hour", t.config.Hour),
		zap.Int("minute", t.config.Minute),
		zap.Timep("next_run_at", t.nextRunAt),
	)

	return nil
}

// Stop stops the trigger and waits for the loop to exit
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("daily trigger stopped")
		return nil
	case <-ctx.Done():
		t.logger.Warn("daily trigger stop timed out")
		return ctx.Err()
	}
}

// TriggerManualRun fires the job immediately, outside the schedule.
// It uses a background context so an HTTP caller disconnecting does not
// cancel the run.
func (t *DailyTrigger) TriggerManualRun() error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return ErrTriggerNotRunning
	}
	t.mu.Unlock()

	go t.run(context.Background())
	return nil
}

// GetNextRunAt returns when the next scheduled run will occur
func (t *DailyTrigger) GetNextRunAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextRunAt
}

// GetLastRunAt returns when the last run occurred
func (t *DailyTrigger) GetLastRunAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRunAt
}

func (t *DailyTrigger) loop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if t.shouldRun(now) {
				t.run(ctx)
				t.calculateNextRunTime()
			}
		}
	}
}

// shouldRun reports whether the scheduled time has been reached and the
// job has not already run today. The date guard keeps a slow ticker or a
// clock adjustment from firing twice in one day.
func (t *DailyTrigger) shouldRun(now time.Time) bool {
	if now.Hour() != t.config.Hour || now.Minute() != t.config.Minute {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRunDate != now.Format("2006-01-02")
}

func (t *DailyTrigger) run(ctx context.Context) {
	now := time.Now()
	t.mu.Lock()
	t.lastRunAt = &now
	t.lastRunDate = now.Format("2006-01-02")
	t.mu.Unlock()

	t.job.Run(ctx)
}

func (t *DailyTrigger) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), t.config.Hour, t.config.Minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	t.mu.Lock()
	t.nextRunAt = &next
	t.mu.Unlock()
}
