package ipc

import (
	"dropsort/internal/events"
	"dropsort/internal/executor"
	"dropsort/internal/journal"
	"dropsort/internal/planner"
	"dropsort/internal/rules"
)

// GetRulesRequest asks for the active rule document.
type GetRulesRequest struct{}

// GetRulesResponse carries the active rules and any load warning.
type GetRulesResponse struct {
	Rules     rules.Rules `json:"rules"`
	LoadIssue string      `json:"loadIssue,omitempty"`
}

// SetRulesRequest installs a full rule document.
type SetRulesRequest struct {
	Rules rules.Rules `json:"rules"`
}

// SetRulesResponse reports the validation outcome of the install.
type SetRulesResponse struct {
	Validation rules.ValidationResult `json:"validation"`
}

// ValidateRulesRequest checks a document without installing it.
type ValidateRulesRequest struct {
	Rules rules.Rules `json:"rules"`
}

// ValidateRulesResponse carries the validation outcome.
type ValidateRulesResponse struct {
	Validation rules.ValidationResult `json:"validation"`
}

// SetSortRootRequest points the rules at a new sort root.
type SetSortRootRequest struct {
	Path string `json:"path"`
}

// SetSortRootResponse echoes the installed root.
type SetSortRootResponse struct {
	SortRoot string `json:"sortRoot"`
}

// DryRunRequest computes a plan without moving anything.
type DryRunRequest struct{}

// DryRunResponse carries the computed plan.
type DryRunResponse struct {
	Plan planner.Preview `json:"plan"`
}

// RunNowRequest triggers one synchronous pipeline pass.
type RunNowRequest struct{}

// RunNowResponse carries the run summary.
type RunNowResponse struct {
	Result executor.RunResult `json:"result"`
}

// UndoRequest reverts the most recent journaled run.
type UndoRequest struct{}

// UndoResponse carries the undo summary.
type UndoResponse struct {
	Result journal.UndoResult `json:"result"`
}

// StartWatcherRequest starts watching the sort root.
type StartWatcherRequest struct{}

// StopWatcherRequest stops the watcher.
type StopWatcherRequest struct{}

// WatcherStatusRequest asks for the watcher state.
type WatcherStatusRequest struct{}

// WatcherStatusResponse reports the watcher state. Shared by the three
// watcher commands so callers always see the state they caused.
type WatcherStatusResponse struct {
	Running  bool   `json:"running"`
	SortRoot string `json:"sortRoot"`
}

// StatusRequest asks for daemon diagnostics.
type StatusRequest struct{}

// StatusResponse reports daemon diagnostics.
type StatusResponse struct {
	Running        bool   `json:"running"`
	PID            int    `json:"pid"`
	SortRoot       string `json:"sortRoot"`
	WatcherRunning bool   `json:"watcherRunning"`
	RulesPath      string `json:"rulesPath"`
	JournalPath    string `json:"journalPath"`
	LockPath       string `json:"lockPath"`
	RulesLoadIssue string `json:"rulesLoadIssue,omitempty"`
}

// EventsRequest fetches buffered events past a sequence number. With Follow
// set the call blocks up to WaitMillis for new events.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int64  `json:"waitMillis"`
}

// EventsResponse carries fetched events and the cursor for the next call.
type EventsResponse struct {
	Events    []events.Event `json:"events"`
	NextSince uint64         `json:"nextSince"`
}
