// Package engine ties the pipeline together: it owns the rule store, the
// journal, the watcher, and the single-run guard, and exposes the operations
// the daemon serves over IPC. At most one run or undo executes at a time;
// everything else queues behind the guard or is rejected.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"dropsort/internal/cleanup"
	"dropsort/internal/errs"
	"dropsort/internal/events"
	"dropsort/internal/executor"
	"dropsort/internal/journal"
	"dropsort/internal/logging"
	"dropsort/internal/planner"
	"dropsort/internal/rules"
	"dropsort/internal/trash"
	"dropsort/internal/watcher"
)

// undoSettleDelay is how long a paused watcher stays down after an undo
// finishes, so late filesystem events from the restore do not retrigger it.
const undoSettleDelay = 1500 * time.Millisecond

// Engine serializes sorting runs over a shared rule store and journal.
type Engine struct {
	logger   *slog.Logger
	store    *rules.Store
	journal  *journal.Journal
	hub      *events.Hub
	executor *executor.Executor
	sweeper  *cleanup.Sweeper
	watcher  *watcher.Watcher

	running atomic.Bool
	undoing atomic.Bool
}

// New wires an engine from its collaborators. The watcher trigger feeds back
// into RunNow, so watcher-driven runs share the same guard as manual ones.
func New(logger *slog.Logger, store *rules.Store, jnl *journal.Journal, hub *events.Hub, bin *trash.Bin, debounce time.Duration) *Engine {
	e := &Engine{
		logger:   logging.NewComponentLogger(logger, "engine"),
		store:    store,
		journal:  jnl,
		hub:      hub,
		executor: executor.New(logger, hub),
		sweeper:  cleanup.NewSweeper(logger, bin),
	}
	e.watcher = watcher.New(logger, debounce, e.watcherTrigger)
	return e
}

// acquire claims the single-run slot.
func (e *Engine) acquire(operation string) (func(), error) {
	if e.running.Swap(true) {
		return nil, errs.Wrap(errs.ErrAlreadyRunning, "engine", operation, "rejected", nil)
	}
	return func() { e.running.Store(false) }, nil
}

// Events returns the hub carrying run and watcher events.
func (e *Engine) Events() *events.Hub {
	return e.hub
}

// Rules returns the active rule document.
func (e *Engine) Rules() rules.Rules {
	return e.store.Current()
}

// RulesLoadIssue reports the warning from a failed rules load, if any.
func (e *Engine) RulesLoadIssue() string {
	return e.store.LoadIssue()
}

// SetRules validates and installs a new rule document. An invalid document
// is rejected and the previous rules stay active.
func (e *Engine) SetRules(doc rules.Rules) (rules.ValidationResult, error) {
	return e.store.Replace(doc)
}

// ValidateRules checks a document without installing it.
func (e *Engine) ValidateRules(doc rules.Rules) rules.ValidationResult {
	return rules.Validate(&doc)
}

// SetSortRoot points the rules at a new root. A running watcher is restarted
// onto the new root.
func (e *Engine) SetSortRoot(path string) error {
	if _, err := e.store.SetSortRoot(path); err != nil {
		return err
	}
	if e.watcher.Status().Running {
		e.StopWatcher()
		if err := e.StartWatcher(); err != nil {
			return err
		}
	}
	return nil
}

// DryRun computes the plan the next run would execute. Read-only apart from
// creating the category folders, and allowed while a run is in flight.
func (e *Engine) DryRun() (*planner.Preview, error) {
	doc := e.store.Current()
	if err := rules.EnsureSortRootDirs(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrIO, "engine", "dry_run", "ensure sort root dirs", err)
	}
	return planner.BuildPlan(&doc)
}

// RunNow executes one full pipeline pass: plan, move, journal, cleanup. A
// pass runs to completion once the executor starts; there is no mid-run
// cancellation. A failed journal append is fatal even though files already
// moved, because an unjournaled run cannot be undone.
func (e *Engine) RunNow() (*executor.RunResult, error) {
	release, err := e.acquire("run_now")
	if err != nil {
		return nil, err
	}
	defer release()

	doc := e.store.Current()
	if err := rules.EnsureSortRootDirs(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrIO, "engine", "run_now", "ensure sort root dirs", err)
	}

	plan, err := planner.BuildPlan(&doc)
	if err != nil {
		return nil, err
	}

	result, err := e.executor.Execute(plan, &doc)
	if err != nil {
		return result, err
	}

	if err := e.journal.Append(result.SessionID, journalMoves(result)); err != nil {
		return result, err
	}

	if doc.Global.CleanupEmptyFolders.Enabled {
		sweep, err := e.sweeper.Sweep(&doc)
		if err != nil {
			e.logger.Warn("cleanup pass failed", logging.Error(err))
		} else {
			result.CleanupTrashed = sweep.Trashed
			result.CleanupErrors = sweep.Errors
		}
	}

	if result.Moved > 0 || result.Skipped > 0 || result.Errors > 0 {
		e.hub.Publish(events.Event{
			Type:      events.TypeRunComplete,
			SessionID: result.SessionID,
			Moved:     result.Moved,
			Skipped:   result.Skipped,
			Errors:    result.Errors,
		})
	}
	return result, nil
}

// UndoLastRun restores the most recent journaled run into the quarantine
// area. The watcher is paused for the duration so the restores themselves do
// not trigger a new run.
func (e *Engine) UndoLastRun() (*journal.UndoResult, error) {
	release, err := e.acquire("undo_last_run")
	if err != nil {
		return nil, err
	}
	defer release()

	e.undoing.Store(true)
	defer e.undoing.Store(false)

	wasRunning := e.watcher.Status().Running
	if wasRunning {
		e.StopWatcher()
	}

	doc := e.store.Current()
	result, undoErr := e.journal.UndoLastRun(doc.Global.SortRoot)

	if wasRunning {
		// Let the restore events drain before the watcher comes back, so the
		// quarantine writes themselves do not queue up a run.
		time.Sleep(undoSettleDelay)
		if err := e.StartWatcher(); err != nil {
			e.logger.Error("failed to resume watcher after undo", logging.Error(err))
		}
	}
	if undoErr != nil {
		return nil, undoErr
	}

	e.hub.Publish(events.Event{
		Type:      events.TypeRunLog,
		SessionID: result.SessionID,
		Level:     "info",
		Message: fmt.Sprintf("undo complete: restored=%d, skipped=%d, conflicts=%d, errors=%d",
			result.Restored, result.Skipped, result.Conflicts, result.Errors),
	})
	return result, nil
}

// StartWatcher begins watching the sort root. Idempotent when running.
func (e *Engine) StartWatcher() error {
	doc := e.store.Current()
	if err := rules.EnsureSortRootDirs(&doc); err != nil {
		return errs.Wrap(errs.ErrIO, "engine", "start_watcher", "ensure sort root dirs", err)
	}
	if err := e.watcher.Start(doc.Global.SortRoot, rules.ProtectedTopLevelFolders(&doc)); err != nil {
		return err
	}
	e.publishWatcherStatus()
	return nil
}

// StopWatcher halts the watcher. Idempotent when stopped.
func (e *Engine) StopWatcher() {
	e.watcher.Stop()
	e.publishWatcherStatus()
}

// WatcherStatus reports the watcher state against the configured sort root.
func (e *Engine) WatcherStatus() watcher.Status {
	doc := e.store.Current()
	return watcher.Status{
		Running:  e.watcher.Status().Running,
		SortRoot: doc.Global.SortRoot,
	}
}

// Shutdown stops background activity. Safe to call more than once.
func (e *Engine) Shutdown() {
	e.watcher.Stop()
}

func (e *Engine) publishWatcherStatus() {
	status := e.WatcherStatus()
	e.hub.Publish(events.Event{
		Type:     events.TypeWatcherStatus,
		Running:  status.Running,
		SortRoot: status.SortRoot,
	})
}

// watcherTrigger runs the pipeline after the drop debounce settles. A run
// already in flight absorbs the trigger; the watcher fires again on the next
// batch of activity.
func (e *Engine) watcherTrigger() {
	if e.undoing.Load() {
		return
	}
	if _, err := e.RunNow(); err != nil {
		if errors.Is(err, errs.ErrAlreadyRunning) {
			e.logger.Debug("watcher trigger skipped, run in progress")
			return
		}
		e.logger.Error("watcher-triggered run failed", logging.Error(err))
		e.hub.Publish(events.Event{
			Type:    events.TypeRunLog,
			Level:   "error",
			Message: fmt.Sprintf("watcher-triggered run failed: %v", err),
		})
	}
}

func journalMoves(result *executor.RunResult) []journal.Move {
	moves := make([]journal.Move, 0, len(result.MovedFiles))
	for _, moved := range result.MovedFiles {
		moves = append(moves, journal.Move{
			RunID:        result.SessionID,
			OriginalPath: moved.SourcePath,
			NewPath:      moved.DestinationPath,
			Status:       journal.StatusMoved,
		})
	}
	return moves
}
