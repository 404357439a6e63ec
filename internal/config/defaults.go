package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultDebounceSeconds = 2
	appDirName             = "dropsort"
)

func defaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appDirName)
}

func defaultStateDir() string {
	return filepath.Join(xdg.StateHome, appDirName)
}

func defaultSocketPath() string {
	if runtime := strings.TrimSpace(xdg.RuntimeDir); runtime != "" {
		return filepath.Join(runtime, appDirName+".sock")
	}
	return filepath.Join(defaultStateDir(), "dropsortd.sock")
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RulesPath:   filepath.Join(defaultConfigDir(), "rules.json"),
			JournalPath: filepath.Join(defaultConfigDir(), "journal.jsonl"),
			LogDir:      filepath.Join(defaultStateDir(), "logs"),
			SocketPath:  defaultSocketPath(),
			LockPath:    filepath.Join(defaultStateDir(), "dropsortd.lock"),
		},
		Watcher: Watcher{
			DebounceSeconds: defaultDebounceSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
