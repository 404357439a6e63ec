// Package cleanup removes empty directories left behind after a run. The
// sweep is bottom-up so that a chain of nested empty folders collapses in a
// single pass, and it refuses to touch the sort root or any protected
// subtree. Removed directories go to the trash, never straight to unlink.
package cleanup

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dropsort/internal/logging"
	"dropsort/internal/rules"
	"dropsort/internal/trash"
)

// Result counts what one sweep did.
type Result struct {
	Trashed      int      `json:"trashed"`
	Skipped      int      `json:"skipped"`
	Errors       int      `json:"errors"`
	SkippedPaths []string `json:"skippedPaths"`
}

// Sweeper trashes empty directories under the sort root.
type Sweeper struct {
	logger *slog.Logger
	bin    *trash.Bin
	now    func() time.Time
}

// Option adjusts a Sweeper.
type Option func(*Sweeper)

// WithClock overrides the time source used for the age gate.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper creates a sweeper that sends directories to bin.
func NewSweeper(logger *slog.Logger, bin *trash.Bin, opts ...Option) *Sweeper {
	s := &Sweeper{
		logger: logging.NewComponentLogger(logger, "cleanup"),
		bin:    bin,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep walks the sort root children-first and trashes every directory that
// is empty, unprotected, and older than the configured minimum age. A
// directory that fails to list or to trash is counted and the sweep moves
// on. Disabled cleanup returns an empty result.
func (s *Sweeper) Sweep(doc *rules.Rules) (*Result, error) {
	result := &Result{}
	cfg := doc.Global.CleanupEmptyFolders
	if !cfg.Enabled {
		return result, nil
	}

	root := doc.Global.SortRoot
	protected := rules.ProtectedTopLevelFolders(doc)
	minAge := time.Duration(cfg.MinAgeSeconds) * time.Second

	dirs, err := collectDirs(root, protected, result)
	if err != nil {
		return result, err
	}

	// Deepest first, so emptying a child can make its parent eligible.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			recordError(result, dir, err)
			continue
		}
		if s.now().Sub(info.ModTime()) < minAge {
			result.Skipped++
			continue
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			recordError(result, dir, err)
			continue
		}
		if len(entries) > 0 {
			continue
		}

		if err := s.bin.Put(dir); err != nil {
			recordError(result, dir, err)
			continue
		}
		result.Trashed++
		s.logger.Debug("trashed empty folder", logging.String("path", dir))
	}

	s.logger.Info("cleanup pass finished",
		logging.Int("trashed", result.Trashed),
		logging.Int("skipped", result.Skipped),
		logging.Int("errors", result.Errors))
	return result, nil
}

// collectDirs lists every directory under root, skipping protected subtrees
// entirely. The root itself is never a candidate.
func collectDirs(root string, protected map[string]struct{}, result *Result) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			recordError(result, path, walkErr)
			return fs.SkipDir
		}
		if !entry.IsDir() || path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			recordError(result, path, err)
			return fs.SkipDir
		}
		first := rel
		if idx := strings.IndexRune(rel, filepath.Separator); idx >= 0 {
			first = rel[:idx]
		}
		if _, ok := protected[first]; ok {
			result.Skipped++
			return fs.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

func recordError(result *Result, path string, err error) {
	result.Errors++
	result.SkippedPaths = append(result.SkippedPaths, fmt.Sprintf("%s: %v", path, err))
}
