package main

import (
	"os"
	"path/filepath"
	"testing"
)

func dropFile(t *testing.T, root, name string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, env.sortRoot)
}

func TestRulesShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"rules", "show"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("rules show: %v", err)
	}
	requireContains(t, out, "Sort root: "+env.sortRoot)
	requireContains(t, out, "Documents")
	requireContains(t, out, "Misc")
}

func TestDryRunRunAndUndoCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	dropFile(t, env.sortRoot, "invoice.pdf")
	dropFile(t, env.sortRoot, "song.mp3")

	out, _, err := runCLI(t, []string{"dry-run"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("dry-run: %v", err)
	}
	requireContains(t, out, "2 planned")
	requireContains(t, out, "invoice.pdf")

	out, _, err = runCLI(t, []string{"run"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Moved")
	if _, err := os.Stat(filepath.Join(env.sortRoot, "Documents", "invoice.pdf")); err != nil {
		t.Fatalf("expected invoice.pdf in Documents: %v", err)
	}

	out, _, err = runCLI(t, []string{"undo"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	requireContains(t, out, "Restored")

	out, _, err = runCLI(t, []string{"events", "--limit", "64"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	requireContains(t, out, "run_complete")
}

func TestWatchCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"watch", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("watch status: %v", err)
	}
	requireContains(t, out, "Stopped")

	out, _, err = runCLI(t, []string{"watch", "start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("watch start: %v", err)
	}
	requireContains(t, out, "Watching "+env.sortRoot)

	out, _, err = runCLI(t, []string{"watch", "stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("watch stop: %v", err)
	}
	requireContains(t, out, "Watcher stopped")
}
