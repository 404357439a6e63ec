// Package executor performs the moves a plan describes. Every entry is
// re-validated against the live filesystem immediately before acting, so a
// plan that aged between preview and run degrades into skips instead of
// surprises. A single failing file never aborts the run.
package executor

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"dropsort/internal/events"
	"dropsort/internal/fileutil"
	"dropsort/internal/logging"
	"dropsort/internal/planner"
	"dropsort/internal/rules"
)

// MovedFile records one completed move.
type MovedFile struct {
	SourcePath       string `json:"sourcePath"`
	DestinationPath  string `json:"destinationPath"`
	Category         string `json:"category"`
	CollisionRenamed bool   `json:"collisionRenamed"`
}

// RunResult summarizes one executed run. Cleanup counters are filled in by
// the pipeline after the post-run sweep.
type RunResult struct {
	SessionID      string         `json:"sessionId"`
	StartedAt      string         `json:"startedAt"`
	FinishedAt     string         `json:"finishedAt"`
	Moved          int            `json:"moved"`
	Skipped        int            `json:"skipped"`
	Errors         int            `json:"errors"`
	MovedFiles     []MovedFile    `json:"movedFiles"`
	Skips          []planner.Skip `json:"skips"`
	ErrorDetails   []planner.Skip `json:"errorDetails"`
	CleanupTrashed int            `json:"cleanupTrashed"`
	CleanupErrors  int            `json:"cleanupErrors"`
}

// Executor moves planned files and streams progress to the event hub.
type Executor struct {
	logger *slog.Logger
	hub    *events.Hub
}

// New creates an executor. Both arguments may be nil.
func New(logger *slog.Logger, hub *events.Hub) *Executor {
	return &Executor{
		logger: logging.NewComponentLogger(logger, "executor"),
		hub:    hub,
	}
}

// Execute runs the plan against the current filesystem. Once started, the
// run proceeds file-by-file to completion; an interrupted process must be
// able to trust that every move it made was reported, so there is no mid-run
// abort. Per-entry re-validation: a vanished source becomes a skip, a source
// that turned too young becomes a skip, and an occupied destination is
// re-resolved against the disk rather than trusted from the stale plan.
func (e *Executor) Execute(plan *planner.Preview, doc *rules.Rules) (*RunResult, error) {
	result := &RunResult{
		SessionID: plan.SessionID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Skips:     append([]planner.Skip(nil), plan.Skips...),
	}
	result.Skipped = len(result.Skips)

	e.publishLog("info", fmt.Sprintf("run started: %d planned moves", plan.MoveCount), plan.SessionID)

	reserved := map[string]struct{}{}
	for _, entry := range plan.Moves {
		skip, reason := e.revalidate(entry, doc)
		if skip {
			result.Skipped++
			result.Skips = append(result.Skips, planner.Skip{Path: entry.SourcePath, Reason: reason})
			e.publishProgress(result, entry.SourcePath, "")
			continue
		}

		destination := entry.DestinationPath
		renamed := entry.CollisionRenamed
		if occupied(destination) {
			destination, _ = planner.ResolveDestination(destination, reserved)
			renamed = true
		} else {
			reserved[destination] = struct{}{}
		}

		if err := fileutil.MoveFile(entry.SourcePath, destination); err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, planner.Skip{Path: entry.SourcePath, Reason: err.Error()})
			e.logger.Error("move failed",
				logging.String(logging.FieldSource, entry.SourcePath),
				logging.String(logging.FieldDestination, destination),
				logging.Error(err))
			e.publishLog("error", fmt.Sprintf("failed moving '%s': %v", entry.SourcePath, err), plan.SessionID)
			e.publishProgress(result, entry.SourcePath, destination)
			continue
		}

		result.Moved++
		result.MovedFiles = append(result.MovedFiles, MovedFile{
			SourcePath:       entry.SourcePath,
			DestinationPath:  destination,
			Category:         entry.Category,
			CollisionRenamed: renamed,
		})
		e.logger.Debug("moved file",
			logging.String(logging.FieldSource, entry.SourcePath),
			logging.String(logging.FieldDestination, destination),
			logging.String(logging.FieldCategory, entry.Category))
		e.publishProgress(result, entry.SourcePath, destination)
	}

	result.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	e.publishLog("info", fmt.Sprintf("run complete: moved=%d, skipped=%d, errors=%d",
		result.Moved, result.Skipped, result.Errors), plan.SessionID)
	return result, nil
}

func (e *Executor) revalidate(entry planner.Entry, doc *rules.Rules) (bool, string) {
	info, err := os.Stat(entry.SourcePath)
	if err != nil {
		return true, "source no longer present"
	}
	minAge := time.Duration(doc.Global.MinFileAgeSeconds) * time.Second
	if time.Since(info.ModTime()) < minAge {
		return true, fmt.Sprintf("too recent: younger than minFileAgeSeconds (%d)", doc.Global.MinFileAgeSeconds)
	}
	return false, ""
}

func (e *Executor) publishProgress(result *RunResult, currentPath, destPath string) {
	e.hub.Publish(events.Event{
		Type:        events.TypeRunProgress,
		SessionID:   result.SessionID,
		Moved:       result.Moved,
		Skipped:     result.Skipped,
		Errors:      result.Errors,
		CurrentPath: currentPath,
		DestPath:    destPath,
	})
}

func (e *Executor) publishLog(level, message, sessionID string) {
	e.hub.Publish(events.Event{
		Type:      events.TypeRunLog,
		SessionID: sessionID,
		Level:     level,
		Message:   message,
	})
}

func occupied(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
