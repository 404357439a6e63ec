package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropsort/internal/logging"
	"dropsort/internal/rules"
	"dropsort/internal/trash"
)

func newSweeper(t *testing.T) *Sweeper {
	t.Helper()
	bin := trash.NewBin(t.TempDir(), logging.NewNop())
	// Everything on disk is older than the age gate from this clock's view.
	clock := func() time.Time { return time.Now().Add(time.Hour) }
	return NewSweeper(logging.NewNop(), bin, WithClock(clock))
}

func cleanupRules(t *testing.T, root string) *rules.Rules {
	t.Helper()
	doc := rules.Default()
	doc.Global.SortRoot = root
	return &doc
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSweepTrashesNestedEmptyFolders(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, filepath.Join(root, "vacation", "2024", "raw"))

	result, err := newSweeper(t).Sweep(cleanupRules(t, root))
	if err != nil {
		t.Fatal(err)
	}
	if result.Trashed != 3 {
		t.Fatalf("trashed = %d, want 3", result.Trashed)
	}
	if _, err := os.Stat(filepath.Join(root, "vacation")); !os.IsNotExist(err) {
		t.Fatalf("chain not collapsed: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("sort root removed: %v", err)
	}
}

func TestSweepLeavesNonEmptyFolders(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, filepath.Join(root, "keep"))
	if err := os.WriteFile(filepath.Join(root, "keep", "file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := newSweeper(t).Sweep(cleanupRules(t, root))
	if err != nil {
		t.Fatal(err)
	}
	if result.Trashed != 0 {
		t.Fatalf("trashed = %d, want 0", result.Trashed)
	}
	if _, err := os.Stat(filepath.Join(root, "keep", "file.txt")); err != nil {
		t.Fatalf("populated folder touched: %v", err)
	}
}

func TestSweepNeverEntersProtectedFolders(t *testing.T) {
	root := t.TempDir()
	mkdirs(t,
		filepath.Join(root, "Documents", "empty"),
		filepath.Join(root, "Misc"),
		filepath.Join(root, rules.RestoredFolderName, "old-session"),
	)

	result, err := newSweeper(t).Sweep(cleanupRules(t, root))
	if err != nil {
		t.Fatal(err)
	}
	if result.Trashed != 0 {
		t.Fatalf("trashed = %d, want 0", result.Trashed)
	}
	for _, p := range []string{
		filepath.Join(root, "Documents", "empty"),
		filepath.Join(root, "Misc"),
		filepath.Join(root, rules.RestoredFolderName, "old-session"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("protected path %s removed: %v", p, err)
		}
	}
	if result.Skipped == 0 {
		t.Fatal("protected folders not counted as skipped")
	}
}

func TestSweepSkipsFoldersYoungerThanMinAge(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, filepath.Join(root, "fresh"))

	bin := trash.NewBin(t.TempDir(), logging.NewNop())
	sweeper := NewSweeper(logging.NewNop(), bin)

	result, err := sweeper.Sweep(cleanupRules(t, root))
	if err != nil {
		t.Fatal(err)
	}
	if result.Trashed != 0 {
		t.Fatalf("trashed = %d, want 0", result.Trashed)
	}
	if _, err := os.Stat(filepath.Join(root, "fresh")); err != nil {
		t.Fatalf("young folder removed: %v", err)
	}
}

func TestSweepDisabledIsNoOp(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, filepath.Join(root, "empty"))

	doc := cleanupRules(t, root)
	doc.Global.CleanupEmptyFolders.Enabled = false

	result, err := newSweeper(t).Sweep(doc)
	if err != nil {
		t.Fatal(err)
	}
	if result.Trashed != 0 || result.Skipped != 0 || result.Errors != 0 {
		t.Fatalf("disabled sweep did work: %+v", result)
	}
	if _, err := os.Stat(filepath.Join(root, "empty")); err != nil {
		t.Fatalf("folder removed while disabled: %v", err)
	}
}
