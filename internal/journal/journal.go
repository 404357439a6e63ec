// Package journal records every completed run as one append-only JSONL line
// so the most recent run can always be undone. Appends are flushed to disk
// before a run is acknowledged; history is never rewritten.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dropsort/internal/errs"
	"dropsort/internal/fileutil"
	"dropsort/internal/logging"
	"dropsort/internal/rules"
)

// StatusMoved marks a journal move that can be undone.
const StatusMoved = "moved"

// Run is one journal line: a session and the moves it performed.
type Run struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	Moves     []Move `json:"moves"`
}

// Move records one file movement inside a run.
type Move struct {
	RunID        string `json:"run_id"`
	OriginalPath string `json:"original_path"`
	NewPath      string `json:"new_path"`
	Timestamp    string `json:"timestamp"`
	Status       string `json:"status"`
}

// UndoDetail reports the outcome for one journaled move during undo.
type UndoDetail struct {
	SourcePath      string `json:"sourcePath"`
	DestinationPath string `json:"destinationPath"`
	Status          string `json:"status"`
	Message         string `json:"message"`
}

// UndoResult aggregates an undo pass. Undo is best effort: each counter
// tracks one outcome class and Details carries the per-file story.
type UndoResult struct {
	SessionID string       `json:"sessionId,omitempty"`
	Restored  int          `json:"restored"`
	Skipped   int          `json:"skipped"`
	Conflicts int          `json:"conflicts"`
	Errors    int          `json:"errors"`
	Details   []UndoDetail `json:"details"`
}

// Journal is the append-only JSONL store.
type Journal struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a journal backed by the JSONL file at path. The file is
// created on first append.
func New(path string, logger *slog.Logger) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.Wrap(errs.ErrConfiguration, "journal", "open", "journal path cannot be empty", nil)
	}
	return &Journal{
		path:   path,
		logger: logging.NewComponentLogger(logger, "journal"),
	}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

// Append durably records one run. The line is synced to disk before Append
// returns so a crash after acknowledgement cannot lose the record. Runs with
// no moves are not recorded.
func (j *Journal) Append(sessionID string, moves []Move) error {
	if len(moves) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	run := Run{
		SessionID: sessionID,
		CreatedAt: now,
		Moves:     make([]Move, len(moves)),
	}
	for i, move := range moves {
		move.RunID = sessionID
		if move.Timestamp == "" {
			move.Timestamp = now
		}
		if move.Status == "" {
			move.Status = StatusMoved
		}
		run.Moves[i] = move
	}

	line, err := json.Marshal(run)
	if err != nil {
		return errs.Wrap(errs.ErrJournal, "journal", "append", "encode run", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.ErrJournal, "journal", "append", "create journal directory", err)
		}
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errs.Wrap(errs.ErrJournal, "journal", "append", "open journal", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return errs.Wrap(errs.ErrJournal, "journal", "append", "write run", err)
	}
	if err := file.Sync(); err != nil {
		return errs.Wrap(errs.ErrJournal, "journal", "append", "sync journal", err)
	}

	j.logger.Info("run journaled",
		logging.String(logging.FieldSessionID, sessionID),
		logging.Int("moves", len(run.Moves)))
	return nil
}

// LastRun returns the most recent parseable run, or false when the journal
// is empty or missing. Blank and malformed lines are tolerated.
func (j *Journal) LastRun() (*Run, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRunLocked()
}

func (j *Journal) lastRunLocked() (*Run, bool, error) {
	file, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errs.Wrap(errs.ErrJournal, "journal", "read", "open journal", err)
	}
	defer file.Close()

	var last *Run
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var run Run
		if err := json.Unmarshal([]byte(line), &run); err != nil {
			continue
		}
		for i := range run.Moves {
			if run.Moves[i].RunID == "" {
				run.Moves[i].RunID = run.SessionID
			}
			if strings.TrimSpace(run.Moves[i].Status) == "" {
				run.Moves[i].Status = StatusMoved
			}
		}
		last = &run
	}
	if err := scanner.Err(); err != nil {
		return nil, false, errs.Wrap(errs.ErrJournal, "journal", "read", "scan journal", err)
	}
	if last == nil {
		return nil, false, nil
	}
	return last, true, nil
}

// UndoLastRun moves every file from the most recent run into the quarantine
// tree <sortRoot>/Restored/<sessionId>/<path relative to sortRoot>. Files are
// never restored in place: the original location may have been reused or
// cleaned up since. An occupied restore target is reported as a conflict and
// left untouched; a single failure never stops the remaining restores.
func (j *Journal) UndoLastRun(sortRoot string) (*UndoResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	last, ok, err := j.lastRunLocked()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &UndoResult{}, nil
	}

	base := filepath.Join(sortRoot, rules.RestoredFolderName, last.SessionID)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrIO, "journal", "undo", "create quarantine directory", err)
	}

	result := &UndoResult{SessionID: last.SessionID}
	for i := len(last.Moves) - 1; i >= 0; i-- {
		move := last.Moves[i]
		detail := UndoDetail{SourcePath: move.OriginalPath, DestinationPath: move.NewPath}

		switch {
		case move.Status != StatusMoved:
			result.Skipped++
			detail.Status = "skipped"
			detail.Message = fmt.Sprintf("journal status %q is not undoable", move.Status)
		case strings.TrimSpace(move.OriginalPath) == "" || strings.TrimSpace(move.NewPath) == "":
			result.Skipped++
			detail.Status = "skipped"
			detail.Message = "journal entry missing original or destination path"
		default:
			detail = j.restoreOne(sortRoot, base, move, result)
		}
		result.Details = append(result.Details, detail)
	}

	j.logger.Info("undo finished",
		logging.String(logging.FieldSessionID, last.SessionID),
		logging.Int("restored", result.Restored),
		logging.Int("skipped", result.Skipped),
		logging.Int("conflicts", result.Conflicts),
		logging.Int("errors", result.Errors))
	return result, nil
}

func (j *Journal) restoreOne(sortRoot, base string, move Move, result *UndoResult) UndoDetail {
	detail := UndoDetail{SourcePath: move.OriginalPath, DestinationPath: move.NewPath}

	if _, err := os.Lstat(move.NewPath); err != nil {
		result.Skipped++
		detail.Status = "skipped"
		detail.Message = "file is no longer at its journaled destination"
		return detail
	}

	rel, err := filepath.Rel(sortRoot, move.OriginalPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		result.Skipped++
		detail.Status = "skipped"
		detail.Message = "journaled source is not under the sort root"
		return detail
	}

	target := filepath.Join(base, rel)
	if _, err := os.Lstat(target); err == nil {
		result.Conflicts++
		detail.Status = "conflict"
		detail.Message = fmt.Sprintf("restore target %s already exists", target)
		return detail
	}

	if err := fileutil.MoveFile(move.NewPath, target); err != nil {
		result.Errors++
		detail.Status = "error"
		detail.Message = err.Error()
		return detail
	}

	result.Restored++
	detail.Status = "restored"
	detail.Message = fmt.Sprintf("restored under %s", base)
	return detail
}
