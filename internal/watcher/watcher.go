// Package watcher observes the sort root for new drops and fires a debounced
// trigger. fsnotify watches are not recursive, so the watcher seeds one watch
// per directory and adds new directories as they appear. Protected folders,
// the run's own destinations, are never watched, which keeps the engine's
// moves from re-triggering it.
package watcher

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"dropsort/internal/errs"
	"dropsort/internal/logging"
)

// Status reports whether the watcher runs and on which root.
type Status struct {
	Running  bool   `json:"running"`
	SortRoot string `json:"sortRoot"`
}

// Watcher debounces filesystem activity under the sort root into trigger
// calls. Safe for concurrent use.
type Watcher struct {
	logger   *slog.Logger
	debounce time.Duration
	trigger  func()

	mu        sync.Mutex
	running   bool
	sortRoot  string
	protected map[string]struct{}
	notifier  *fsnotify.Watcher
	stop      chan struct{}
	done      chan struct{}
}

// New creates a stopped watcher. The trigger fires once per quiet period
// after activity, never concurrently with itself.
func New(logger *slog.Logger, debounce time.Duration, trigger func()) *Watcher {
	return &Watcher{
		logger:   logging.NewComponentLogger(logger, "watcher"),
		debounce: debounce,
		trigger:  trigger,
	}
}

// Start begins watching root and every unprotected directory below it.
// Starting a running watcher is a no-op. Setup failure leaves the watcher
// stopped.
func (w *Watcher) Start(root string, protected map[string]struct{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(errs.ErrWatch, "watcher", "start", "create notifier", err)
	}
	if err := addTree(notifier, root, root, protected); err != nil {
		notifier.Close()
		return errs.Wrap(errs.ErrWatch, "watcher", "start", "watch "+root, err)
	}

	w.running = true
	w.sortRoot = root
	w.protected = protected
	w.notifier = notifier
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(notifier, root, protected, w.stop, w.done)

	w.logger.Info("watcher started", logging.String(logging.FieldSortRoot, root))
	return nil
}

// Stop halts the watcher and waits for its loop to exit. Stopping a stopped
// watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	stop, done := w.stop, w.done
	w.running = false
	w.mu.Unlock()

	close(stop)
	<-done

	w.mu.Lock()
	w.notifier = nil
	w.stop = nil
	w.done = nil
	w.mu.Unlock()

	w.logger.Info("watcher stopped")
}

// Status returns the current state. SortRoot stays set after a stop so the
// last watched root remains visible.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{Running: w.running, SortRoot: w.sortRoot}
}

func (w *Watcher) loop(notifier *fsnotify.Watcher, root string, protected map[string]struct{}, stop, done chan struct{}) {
	defer close(done)
	defer notifier.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-stop:
			return
		case event, ok := <-notifier.Events:
			if !ok {
				return
			}
			if !relevant(event.Op) || isProtected(event.Name, root, protected) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// A new directory needs its own watch before files land in it.
				if err := addTree(notifier, root, event.Name, protected); err != nil {
					w.logger.Warn("failed to watch new directory",
						logging.String("path", event.Name), logging.Error(err))
				}
			}
			// Reset on every event: the trigger fires only after a quiet
			// period, so a burst of drops coalesces into one run.
			if armed && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			armed = true
		case err, ok := <-notifier.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		case <-timer.C:
			armed = false
			w.trigger()
		}
	}
}

// addTree registers watches for path and every unprotected directory below
// it. Non-directories are ignored so it can be called straight from a create
// event.
func addTree(notifier *fsnotify.Watcher, root, path string, protected map[string]struct{}) error {
	return filepath.WalkDir(path, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == path {
				return walkErr
			}
			return fs.SkipDir
		}
		if !entry.IsDir() {
			return nil
		}
		if p != root && isProtected(p, root, protected) {
			return fs.SkipDir
		}
		return notifier.Add(p)
	})
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}

func isProtected(path, root string, protected map[string]struct{}) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	first := rel
	if idx := strings.IndexRune(rel, filepath.Separator); idx >= 0 {
		first = rel[:idx]
	}
	_, ok := protected[first]
	return ok
}
