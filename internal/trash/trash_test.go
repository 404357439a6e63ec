package trash_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dropsort/internal/trash"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestPutDirectory(t *testing.T) {
	dir := t.TempDir()
	victim := filepath.Join(dir, "empty-folder")
	if err := os.Mkdir(victim, 0o755); err != nil {
		t.Fatal(err)
	}

	bin := trash.NewBin(filepath.Join(dir, "Trash"), nil, trash.WithClock(fixedClock))
	if err := bin.Put(victim); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if _, err := os.Stat(victim); !os.IsNotExist(err) {
		t.Fatalf("expected original to be gone, stat err = %v", err)
	}
	if info, err := os.Stat(filepath.Join(bin.Root(), "files", "empty-folder")); err != nil || !info.IsDir() {
		t.Fatalf("expected trashed directory: %v", err)
	}

	record, err := os.ReadFile(filepath.Join(bin.Root(), "info", "empty-folder.trashinfo"))
	if err != nil {
		t.Fatalf("read trashinfo: %v", err)
	}
	content := string(record)
	if !strings.HasPrefix(content, "[Trash Info]\n") {
		t.Fatalf("unexpected trashinfo header: %q", content)
	}
	if !strings.Contains(content, "Path="+victim) {
		t.Fatalf("trashinfo missing original path: %q", content)
	}
	if !strings.Contains(content, "DeletionDate=2026-03-14T09:26:53") {
		t.Fatalf("trashinfo missing deletion date: %q", content)
	}
}

func TestPutResolvesNameCollisions(t *testing.T) {
	dir := t.TempDir()
	bin := trash.NewBin(filepath.Join(dir, "Trash"), nil)

	for i := 0; i < 3; i++ {
		victim := filepath.Join(dir, "dup")
		if err := os.Mkdir(victim, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := bin.Put(victim); err != nil {
			t.Fatalf("Put %d returned error: %v", i, err)
		}
	}

	for _, name := range []string{"dup", "dup.2", "dup.3"} {
		if _, err := os.Stat(filepath.Join(bin.Root(), "files", name)); err != nil {
			t.Fatalf("expected trashed name %q: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(bin.Root(), "info", name+".trashinfo")); err != nil {
			t.Fatalf("expected trashinfo for %q: %v", name, err)
		}
	}
}

func TestPutFile(t *testing.T) {
	dir := t.TempDir()
	victim := filepath.Join(dir, "loose file.txt")
	if err := os.WriteFile(victim, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	bin := trash.NewBin(filepath.Join(dir, "Trash"), nil)
	if err := bin.Put(victim); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	record, err := os.ReadFile(filepath.Join(bin.Root(), "info", "loose file.txt.trashinfo"))
	if err != nil {
		t.Fatalf("read trashinfo: %v", err)
	}
	// Spaces in the original path are percent-encoded.
	if !strings.Contains(string(record), "loose%20file.txt") {
		t.Fatalf("expected escaped path in trashinfo: %q", record)
	}
}

func TestPutMissingPath(t *testing.T) {
	bin := trash.NewBin(filepath.Join(t.TempDir(), "Trash"), nil)
	if err := bin.Put(filepath.Join(t.TempDir(), "ghost")); err == nil {
		t.Fatal("expected error for missing path")
	}
}
