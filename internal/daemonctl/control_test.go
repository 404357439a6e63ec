package daemonctl_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dropsort/internal/config"
	"dropsort/internal/daemon"
	"dropsort/internal/daemonctl"
	"dropsort/internal/engine"
	"dropsort/internal/events"
	"dropsort/internal/ipc"
	"dropsort/internal/journal"
	"dropsort/internal/logging"
	"dropsort/internal/rules"
	"dropsort/internal/trash"
)

func serveDaemon(t *testing.T) string {
	t.Helper()
	stateDir := t.TempDir()

	base := config.Default()
	cfg := &base
	cfg.Paths.RulesPath = filepath.Join(stateDir, "rules.json")
	cfg.Paths.JournalPath = filepath.Join(stateDir, "journal.jsonl")
	cfg.Paths.LogDir = filepath.Join(stateDir, "logs")
	cfg.Paths.SocketPath = filepath.Join(stateDir, "d.sock")
	cfg.Paths.LockPath = filepath.Join(stateDir, "d.lock")
	cfg.Paths.TrashDir = filepath.Join(stateDir, "trash")

	logger := logging.NewNop()
	store, err := rules.NewStore(cfg.Paths.RulesPath, logger)
	if err != nil {
		t.Fatal(err)
	}
	doc := rules.Default()
	doc.Global.SortRoot = t.TempDir()
	if _, err := store.Replace(doc); err != nil {
		t.Fatal(err)
	}
	jnl, err := journal.New(cfg.Paths.JournalPath, logger)
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New(logger, store, jnl, events.NewHub(16), trash.NewBin(cfg.Paths.TrashDir, logger), time.Second)

	d, err := daemon.New(cfg, eng, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping daemonctl test: %v", err)
		}
		t.Fatal(err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	time.Sleep(50 * time.Millisecond)
	return cfg.Paths.SocketPath
}

func TestProcessInfoReachableDaemon(t *testing.T) {
	socket := serveDaemon(t)
	running, pid, err := daemonctl.ProcessInfo(socket)
	if err != nil {
		t.Fatal(err)
	}
	if !running || pid <= 0 {
		t.Fatalf("running=%v pid=%d", running, pid)
	}
}

func TestProcessInfoMissingSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "absent.sock")
	running, pid, err := daemonctl.ProcessInfo(socket)
	if err != nil {
		t.Fatal(err)
	}
	if running || pid != 0 {
		t.Fatalf("running=%v pid=%d for missing socket", running, pid)
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "never.sock")
	if _, err := daemonctl.WaitForClient(socket, 300*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestStopAndTerminateNotRunning(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "absent.sock")
	_, err := daemonctl.StopAndTerminate(socket, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("err = %v, want ErrDaemonNotRunning", err)
	}
}
