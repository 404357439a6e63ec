// Package trash moves directories and files into a FreeDesktop-style trash
// (files/ payload plus info/*.trashinfo records) instead of deleting them, so
// cleanup sweeps stay reversible from any desktop trash tool.
package trash

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"dropsort/internal/fileutil"
	"dropsort/internal/logging"
)

// Bin writes discarded paths into a single trash root.
type Bin struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Bin.
type Option func(*Bin)

// WithClock overrides the deletion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Bin) { b.now = now }
}

// NewBin creates a trash bin rooted at root. An empty root selects the home
// trash per the XDG base directory spec.
func NewBin(root string, logger *slog.Logger, opts ...Option) *Bin {
	if root == "" {
		root = filepath.Join(xdg.DataHome, "Trash")
	}
	b := &Bin{
		root:   root,
		logger: logging.NewComponentLogger(logger, "trash"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Root returns the trash root directory.
func (b *Bin) Root() string { return b.root }

// Put moves path into the trash and writes its trashinfo record. The name
// inside the trash gets a numeric suffix when already taken.
func (b *Bin) Put(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	filesDir := filepath.Join(b.root, "files")
	infoDir := filepath.Join(b.root, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create trash directory: %w", err)
		}
	}

	name := b.reserveName(filesDir, infoDir, filepath.Base(path))
	record := filepath.Join(infoDir, name+".trashinfo")
	if err := b.writeInfo(record, path); err != nil {
		return err
	}

	target := filepath.Join(filesDir, name)
	if info.IsDir() {
		err = fileutil.MoveDir(path, target)
	} else {
		err = fileutil.MoveFile(path, target)
	}
	if err != nil {
		_ = os.Remove(record)
		return fmt.Errorf("move to trash: %w", err)
	}

	b.logger.Debug("trashed path",
		logging.String("path", path),
		logging.String("trash_name", name))
	return nil
}

func (b *Bin) reserveName(filesDir, infoDir, base string) string {
	candidate := base
	for i := 2; ; i++ {
		if !exists(filepath.Join(filesDir, candidate)) && !exists(filepath.Join(infoDir, candidate+".trashinfo")) {
			return candidate
		}
		candidate = base + "." + strconv.Itoa(i)
	}
}

func (b *Bin) writeInfo(record, original string) error {
	abs, err := filepath.Abs(original)
	if err != nil {
		abs = original
	}
	content := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapePath(abs), b.now().Format("2006-01-02T15:04:05"))
	if err := os.WriteFile(record, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write trashinfo: %w", err)
	}
	return nil
}

// escapePath percent-encodes each path segment per the trashinfo format,
// leaving separators intact.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
