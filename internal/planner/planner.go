// Package planner builds the move plan for one sorting pass: a deterministic
// preview of which files leave the drop area, where each one lands, and why
// the rest stay put.
package planner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"dropsort/internal/rules"
)

// Entry is one planned move.
type Entry struct {
	SourcePath       string `json:"sourcePath"`
	DestinationPath  string `json:"destinationPath"`
	Category         string `json:"category"`
	CollisionRenamed bool   `json:"collisionRenamed"`
}

// Skip records a file that stays put and the reason.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Group collects the planned moves for one destination category.
type Group struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Entries  []Entry `json:"entries"`
}

// Preview is the complete plan for one pass. Building it never touches the
// filesystem beyond reading; the same tree and rules yield the same plan.
type Preview struct {
	SessionID          string  `json:"sessionId"`
	GeneratedAt        string  `json:"generatedAt"`
	TotalCandidates    int     `json:"totalCandidates"`
	MoveCount          int     `json:"moveCount"`
	SkipCount          int     `json:"skipCount"`
	ErrorCount         int     `json:"errorCount"`
	PotentialConflicts int     `json:"potentialConflicts"`
	Moves              []Entry `json:"moves"`
	Skips              []Skip  `json:"skips"`
	Grouped            []Group `json:"grouped"`
}

// BuildPlan walks the sort root and produces a Preview. Files under
// protected category folders and the undo quarantine are never candidates;
// scanned subtrees are flattened so every discovered file is planned
// independently of its directory.
func BuildPlan(doc *rules.Rules) (*Preview, error) {
	root := doc.Global.SortRoot
	lookup := rules.ExtensionLookup(doc)
	protected := rules.ProtectedTopLevelFolders(doc)

	preview := &Preview{
		SessionID:   uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	reserved := map[string]struct{}{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			preview.ErrorCount++
			preview.Skips = append(preview.Skips, Skip{Path: path, Reason: walkErr.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if insideProtected(path, root, protected) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if insideProtected(path, root, protected) {
			return nil
		}

		preview.TotalCandidates++

		if !oldEnough(path, doc.Global.MinFileAgeSeconds) {
			preview.Skips = append(preview.Skips, Skip{
				Path:   path,
				Reason: fmt.Sprintf("too recent: younger than minFileAgeSeconds (%d)", doc.Global.MinFileAgeSeconds),
			})
			return nil
		}

		target := rules.ClassifyPath(doc, lookup, path)
		if target.Skip {
			preview.Skips = append(preview.Skips, Skip{Path: path, Reason: target.Reason})
			return nil
		}

		candidate := filepath.Join(root, target.Subfolder, filepath.Base(path))
		destination, renamed := ResolveDestination(candidate, reserved)
		if renamed {
			preview.PotentialConflicts++
		}
		preview.Moves = append(preview.Moves, Entry{
			SourcePath:       path,
			DestinationPath:  destination,
			Category:         target.Subfolder,
			CollisionRenamed: renamed,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan sort root: %w", err)
	}

	preview.MoveCount = len(preview.Moves)
	preview.SkipCount = len(preview.Skips)
	preview.Grouped = groupByCategory(preview.Moves)
	return preview, nil
}

// ResolveDestination returns an unoccupied destination for candidate,
// checking both the disk and the names already reserved by this plan. Taken
// names get " (N)" inserted before the extension, counting up from 1.
func ResolveDestination(candidate string, reserved map[string]struct{}) (string, bool) {
	if available(candidate, reserved) {
		reserved[candidate] = struct{}{}
		return candidate, false
	}

	dir := filepath.Dir(candidate)
	ext := filepath.Ext(candidate)
	stem := filepath.Base(candidate)
	stem = stem[:len(stem)-len(ext)]

	for idx := 1; ; idx++ {
		name := fmt.Sprintf("%s (%d)%s", stem, idx, ext)
		next := filepath.Join(dir, name)
		if available(next, reserved) {
			reserved[next] = struct{}{}
			return next, true
		}
	}
}

func available(path string, reserved map[string]struct{}) bool {
	if _, taken := reserved[path]; taken {
		return false
	}
	_, err := os.Lstat(path)
	return err != nil
}

func oldEnough(path string, minAgeSeconds int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) >= time.Duration(minAgeSeconds)*time.Second
}

func insideProtected(path, root string, protected map[string]struct{}) bool {
	relative, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	first := relative
	if idx := firstSeparator(relative); idx >= 0 {
		first = relative[:idx]
	}
	_, ok := protected[first]
	return ok
}

func firstSeparator(path string) int {
	for i := 0; i < len(path); i++ {
		if os.IsPathSeparator(path[i]) {
			return i
		}
	}
	return -1
}

func groupByCategory(entries []Entry) []Group {
	byCategory := map[string][]Entry{}
	for _, entry := range entries {
		byCategory[entry.Category] = append(byCategory[entry.Category], entry)
	}
	grouped := make([]Group, 0, len(byCategory))
	for category, members := range byCategory {
		grouped = append(grouped, Group{Category: category, Count: len(members), Entries: members})
	}
	sort.Slice(grouped, func(i, j int) bool { return grouped[i].Category < grouped[j].Category })
	return grouped
}
