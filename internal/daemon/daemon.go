// Package daemon hosts the sorting engine behind a single-instance lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"dropsort/internal/config"
	"dropsort/internal/engine"
	"dropsort/internal/logging"
)

// Daemon coordinates the engine and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	SortRoot       string
	WatcherRunning bool
	RulesPath      string
	JournalPath    string
	LockPath       string
	RulesLoadIssue string
}

// New constructs a daemon around an already wired engine.
func New(cfg *config.Config, eng *engine.Engine, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || eng == nil {
		return nil, errors.New("daemon requires config and engine")
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		engine:   eng,
		lockPath: cfg.Paths.LockPath,
		lock:     flock.New(cfg.Paths.LockPath),
	}, nil
}

// Engine exposes the engine for the IPC layer.
func (d *Daemon) Engine() *engine.Engine {
	return d.engine
}

// Start acquires the instance lock and brings up the watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dropsort daemon instance is already running")
	}

	_, d.cancel = context.WithCancel(ctx)
	if err := d.engine.StartWatcher(); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.cancel = nil
		return fmt.Errorf("start watcher: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("dropsort daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the watcher and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.engine.Shutdown()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("dropsort daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	watcherStatus := d.engine.WatcherStatus()
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		SortRoot:       watcherStatus.SortRoot,
		WatcherRunning: watcherStatus.Running,
		RulesPath:      d.cfg.Paths.RulesPath,
		JournalPath:    d.cfg.Paths.JournalPath,
		LockPath:       d.lockPath,
		RulesLoadIssue: d.engine.RulesLoadIssue(),
	}
}
