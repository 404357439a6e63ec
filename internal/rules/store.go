package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dropsort/internal/errs"
	"dropsort/internal/logging"
)

// Store provides thread-safe access to the persisted rules document. The
// document lives in a single pretty-printed JSON file; saves go through a
// temp file and rename so a crash never leaves a half-written document.
type Store struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	rules     Rules
	loadIssue string
}

// NewStore opens the rules document at path, creating it with built-in
// defaults when missing. A corrupt or invalid document falls back to
// defaults; the condition is logged and kept visible through LoadIssue.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.Wrap(errs.ErrConfiguration, "rules", "open", "rules path cannot be empty", nil)
	}
	logger = logging.NewComponentLogger(logger, "rules")

	s := &Store{
		path:   path,
		logger: logger,
		rules:  Default(),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.save(s.rules); err != nil {
			return nil, fmt.Errorf("write default rules: %w", err)
		}
		logger.Info("created default rules document", logging.String("path", path))
	case err != nil:
		return nil, errs.Wrap(errs.ErrIO, "rules", "open", "read rules document", err)
	default:
		var parsed Rules
		if err := json.Unmarshal(data, &parsed); err != nil {
			s.loadIssue = fmt.Sprintf("rules document is corrupt, using defaults: %v", err)
		} else if result := Validate(&parsed); !result.Valid {
			s.loadIssue = fmt.Sprintf("rules document is invalid, using defaults: %s", strings.Join(result.Errors, "; "))
		} else {
			s.rules = parsed
		}
		if s.loadIssue != "" {
			logger.Warn("falling back to default rules",
				logging.String(logging.FieldEventType, "rules_load_failed"),
				logging.String("path", path),
				logging.String("issue", s.loadIssue),
				logging.String(logging.FieldErrorHint, "fix or delete the rules file, then restart"))
		}
	}

	return s, nil
}

// Current returns a copy of the in-memory rules document.
func (s *Store) Current() Rules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRules(s.rules)
}

// LoadIssue reports the reason the persisted document was rejected at open,
// or an empty string when it loaded cleanly.
func (s *Store) LoadIssue() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadIssue
}

// Replace validates and persists a complete new document, then makes it the
// current one. Invalid documents are rejected without touching disk.
func (s *Store) Replace(r Rules) (ValidationResult, error) {
	result := Validate(&r)
	if !result.Valid {
		return result, errs.Wrap(errs.ErrValidation, "rules", "replace",
			strings.Join(result.Errors, "; "), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(r); err != nil {
		return result, err
	}
	s.rules = cloneRules(r)
	s.loadIssue = ""
	s.logger.Info("rules updated",
		logging.String(logging.FieldSortRoot, r.Global.SortRoot),
		logging.Int("categories", len(r.Categories)))
	return result, nil
}

// SetSortRoot updates only the sort root, persisting the amended document.
func (s *Store) SetSortRoot(root string) (Rules, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return Rules{}, errs.Wrap(errs.ErrValidation, "rules", "set-sort-root", "sortRoot cannot be empty", nil)
	}
	if !filepath.IsAbs(root) {
		return Rules{}, errs.Wrap(errs.ErrValidation, "rules", "set-sort-root",
			fmt.Sprintf("sortRoot must be an absolute path, got %q", root), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	updated := cloneRules(s.rules)
	updated.Global.SortRoot = root
	if err := s.save(updated); err != nil {
		return Rules{}, err
	}
	s.rules = updated
	s.logger.Info("sort root updated", logging.String(logging.FieldSortRoot, root))
	return cloneRules(updated), nil
}

func (s *Store) save(r Rules) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.ErrIO, "rules", "save", "create rules directory", err)
		}
	}

	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrIO, "rules", "save", "encode rules", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errs.Wrap(errs.ErrIO, "rules", "save", "write rules", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errs.Wrap(errs.ErrIO, "rules", "save", "replace rules file", err)
	}
	return nil
}

func cloneRules(r Rules) Rules {
	clone := r
	clone.Categories = make([]CategoryRule, len(r.Categories))
	for i, category := range r.Categories {
		clone.Categories[i] = category
		clone.Categories[i].Extensions = append([]string(nil), category.Extensions...)
	}
	return clone
}
