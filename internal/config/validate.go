package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Watcher.DebounceSeconds < 0 {
		return errors.New("watcher.debounce_seconds must be positive")
	}
	for key, value := range map[string]string{
		"paths.rules_path":   c.Paths.RulesPath,
		"paths.journal_path": c.Paths.JournalPath,
		"paths.socket_path":  c.Paths.SocketPath,
		"paths.lock_path":    c.Paths.LockPath,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
