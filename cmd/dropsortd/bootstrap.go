package main

import (
	"log/slog"
	"time"

	"dropsort/internal/config"
	"dropsort/internal/daemon"
	"dropsort/internal/engine"
	"dropsort/internal/events"
	"dropsort/internal/journal"
	"dropsort/internal/rules"
	"dropsort/internal/trash"
)

const eventBufferSize = 1024

// buildDaemon wires the full pipeline from configuration.
func buildDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := rules.NewStore(cfg.Paths.RulesPath, logger)
	if err != nil {
		return nil, err
	}
	jnl, err := journal.New(cfg.Paths.JournalPath, logger)
	if err != nil {
		return nil, err
	}

	hub := events.NewHub(eventBufferSize)
	bin := trash.NewBin(cfg.Paths.TrashDir, logger)
	debounce := time.Duration(cfg.Watcher.DebounceSeconds) * time.Second
	eng := engine.New(logger, store, jnl, hub, bin, debounce)

	return daemon.New(cfg, eng, logger)
}
