package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropsort/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dropsortd.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\n")

	page, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(page.Lines) != 2 || page.Lines[0] != "two" || page.Lines[1] != "three" {
		t.Fatalf("unexpected lines: %#v", page.Lines)
	}
	if page.Offset == 0 {
		t.Fatal("expected offset past start of file")
	}
}

func TestTailResumeFromOffset(t *testing.T) {
	path := writeLog(t, "first\n")

	page, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	next, err := logs.Tail(context.Background(), path, logs.Options{Offset: page.Offset})
	if err != nil {
		t.Fatalf("resume tail: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "second" {
		t.Fatalf("unexpected lines: %#v", next.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")

	page, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(page.Lines) != 0 || page.Offset != 0 {
		t.Fatalf("expected empty page, got %#v", page)
	}
}

func TestTailFollowPicksUpAppend(t *testing.T) {
	path := writeLog(t, "start\n")

	initial, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	done := make(chan logs.Page, 1)
	go func() {
		page, err := logs.Tail(context.Background(), path, logs.Options{
			Offset: initial.Offset,
			Follow: true,
			Wait:   5 * time.Second,
		})
		if err != nil {
			t.Errorf("follow tail: %v", err)
		}
		done <- page
	}()

	time.Sleep(300 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case page := <-done:
		if len(page.Lines) != 1 || page.Lines[0] != "later" {
			t.Fatalf("unexpected follow lines: %#v", page.Lines)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("follow did not observe the appended line")
	}
}

func TestTailFollowHonorsContext(t *testing.T) {
	path := writeLog(t, "only\n")

	initial, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = logs.Tail(ctx, path, logs.Options{Offset: initial.Offset, Follow: true, Wait: 5 * time.Second})
	if err == nil {
		t.Fatal("expected context error")
	}
}
