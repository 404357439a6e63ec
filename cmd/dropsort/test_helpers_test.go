package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dropsort/internal/config"
	"dropsort/internal/daemon"
	"dropsort/internal/engine"
	"dropsort/internal/events"
	"dropsort/internal/ipc"
	"dropsort/internal/journal"
	"dropsort/internal/logging"
	"dropsort/internal/rules"
	"dropsort/internal/trash"
)

type cliTestEnv struct {
	cfg        *config.Config
	engine     *engine.Engine
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	sortRoot   string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	sortRoot := filepath.Join(base, "drop")
	if err := os.MkdirAll(sortRoot, 0o755); err != nil {
		t.Fatalf("mkdir sort root: %v", err)
	}

	cfgValue := config.Default()
	cfg := &cfgValue
	cfg.Paths.RulesPath = filepath.Join(base, "rules.json")
	cfg.Paths.JournalPath = filepath.Join(base, "journal.jsonl")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "dropsort.sock")
	cfg.Paths.LockPath = filepath.Join(base, "dropsort.lock")
	cfg.Paths.TrashDir = filepath.Join(base, "trash")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	logger := logging.NewNop()
	store, err := rules.NewStore(cfg.Paths.RulesPath, logger)
	if err != nil {
		t.Fatalf("rules.NewStore: %v", err)
	}
	doc := rules.Default()
	doc.Global.SortRoot = sortRoot
	doc.Global.MinFileAgeSeconds = 0
	doc.Global.CleanupEmptyFolders.Enabled = false
	if _, err := store.Replace(doc); err != nil {
		t.Fatalf("store.Replace: %v", err)
	}

	jnl, err := journal.New(cfg.Paths.JournalPath, logger)
	if err != nil {
		t.Fatalf("journal.New: %v", err)
	}
	hub := events.NewHub(128)
	bin := trash.NewBin(cfg.Paths.TrashDir, logger)
	eng := engine.New(logger, store, jnl, hub, bin, 100*time.Millisecond)

	d, err := daemon.New(cfg, eng, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	eng.StopWatcher()

	env := &cliTestEnv{
		cfg:        cfg,
		engine:     eng,
		daemon:     d,
		server:     srv,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
		sortRoot:   sortRoot,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := "[paths]\n" +
		"rules_path = \"" + cfg.Paths.RulesPath + "\"\n" +
		"journal_path = \"" + cfg.Paths.JournalPath + "\"\n" +
		"log_dir = \"" + cfg.Paths.LogDir + "\"\n" +
		"socket_path = \"" + cfg.Paths.SocketPath + "\"\n" +
		"lock_path = \"" + cfg.Paths.LockPath + "\"\n" +
		"trash_dir = \"" + cfg.Paths.TrashDir + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
