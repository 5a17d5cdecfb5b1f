package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/username/bgv-admin/internal/delay"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when a notification run is still in progress
var ErrAlreadyRunning = errors.New("notification run already in progress")

// Runner performs one notification run
type Runner interface {
	Run(ctx context.Context, now time.Time) (*delay.RunResult, error)
}

// Config holds the daemon settings
type Config struct {
	Schedule   string // standard 5-field cron expression
	Location   *time.Location
	RunOnStart bool
}

// Daemon runs the TAT delay notification on a cron schedule
type Daemon struct {
	runner     Runner
	schedule   cron.Schedule
	expr       string
	location   *time.Location
	runOnStart bool
	logger     *zap.Logger
	cron       *cron.Cron
	now        func() time.Time

	mu         sync.Mutex // Protect against concurrent runs
	running    bool
	lastRun    time.Time
	lastResult *delay.RunResult
	lastErr    error
}

// Status describes the daemon state
type Status struct {
	Running    bool             `json:"running"`
	Schedule   string           `json:"schedule"`
	NextRun    time.Time        `json:"next_run"`
	LastRun    time.Time        `json:"last_run,omitempty"`
	LastResult *delay.RunResult `json:"last_result,omitempty"`
	LastError  string           `json:"last_error,omitempty"`
}

// New creates a new daemon instance
func New(runner Runner, cfg Config, logger *zap.Logger) (*Daemon, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &Daemon{
		runner:     runner,
		schedule:   schedule,
		expr:       cfg.Schedule,
		location:   loc,
		runOnStart: cfg.RunOnStart,
		logger:     logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{logger.Sugar()}),
		),
		now: time.Now,
	}, nil
}

// Start schedules the notification and blocks until ctx is cancelled or
// SIGINT/SIGTERM arrives. A run in progress is waited for.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.cron.Schedule(d.schedule, cron.FuncJob(func() {
		d.runScheduled(ctx)
	}))
	d.cron.Start()

	d.logger.Info("Daemon started",
		zap.String("schedule", d.expr),
		zap.String("timezone", d.location.String()),
		zap.Time("next_run", d.NextRun()))

	if d.runOnStart {
		d.logger.Info("Running notification on start")
		d.runScheduled(ctx)
	}

	<-ctx.Done()
	d.logger.Info("Shutting down daemon")

	<-d.cron.Stop().Done()
	d.logger.Info("Daemon stopped")

	return nil
}

// RunOnce performs a notification run unless one is already in progress
func (d *Daemon) RunOnce(ctx context.Context) (*delay.RunResult, error) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		d.logger.Warn("Notification already running, skipping concurrent execution")
		return nil, ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()

	now := d.now()
	result, err := d.runner.Run(ctx, now)

	d.mu.Lock()
	d.running = false
	d.lastRun = now
	d.lastResult = result
	d.lastErr = err
	d.mu.Unlock()

	return result, err
}

func (d *Daemon) runScheduled(ctx context.Context) {
	result, err := d.RunOnce(ctx)
	if err != nil {
		if !errors.Is(err, ErrAlreadyRunning) {
			d.logger.Error("Notification run failed", zap.Error(err))
		}
		return
	}

	d.logger.Info("Notification run completed",
		zap.String("slot", result.Slot),
		zap.Bool("skipped", result.Skipped),
		zap.String("reason", result.Reason),
		zap.Int("applications", result.Applications),
		zap.Time("next_run", d.NextRun()))
}

// NextRun returns the next scheduled run time
func (d *Daemon) NextRun() time.Time {
	return d.schedule.Next(d.now().In(d.location))
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := Status{
		Running:    d.running,
		Schedule:   d.expr,
		NextRun:    d.schedule.Next(d.now().In(d.location)),
		LastRun:    d.lastRun,
		LastResult: d.lastResult,
	}
	if d.lastErr != nil {
		status.LastError = d.lastErr.Error()
	}
	return status
}

// cronLogger routes cron's own messages to zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
