package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CollisionPolicyRename is the only supported collision policy: occupied
// destination names get a " (N)" suffix before the extension.
const CollisionPolicyRename = "rename"

// CleanupModeTrash moves removed directories to the trash instead of
// deleting them permanently.
const CleanupModeTrash = "trash"

// RestoredFolderName is the reserved quarantine folder undo restores into.
// The planner never descends into it.
const RestoredFolderName = "Restored"

// Rules is the complete classification document.
type Rules struct {
	Global     GlobalRules    `json:"global"`
	Categories []CategoryRule `json:"categories"`
	Misc       MiscRule       `json:"misc"`
}

// GlobalRules carries the sort root and the knobs that apply to every run.
type GlobalRules struct {
	SortRoot              string       `json:"sortRoot"`
	CaseInsensitiveExt    bool         `json:"caseInsensitiveExt"`
	CollisionPolicy       string       `json:"collisionPolicy"`
	UnknownGoesToMisc     bool         `json:"unknownGoesToMisc"`
	NoExtensionGoesToMisc bool         `json:"noExtensionGoesToMisc"`
	MinFileAgeSeconds     int64        `json:"minFileAgeSeconds"`
	CleanupEmptyFolders   CleanupRules `json:"cleanupEmptyFolders"`
}

// CleanupRules configures the empty-directory sweep that follows a run.
type CleanupRules struct {
	Enabled       bool   `json:"enabled"`
	MinAgeSeconds int64  `json:"minAgeSeconds"`
	Mode          string `json:"mode"`
}

// CategoryRule maps a set of extensions to a target subfolder.
type CategoryRule struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	TargetSubfolder string   `json:"targetSubfolder"`
	Extensions      []string `json:"extensions"`
}

// MiscRule names the fallback folder for unknown and extensionless files.
type MiscRule struct {
	Name            string `json:"name"`
	TargetSubfolder string `json:"targetSubfolder"`
}

// SuggestedSortRoot returns the default sort root under the user's home.
func SuggestedSortRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Sort"
	}
	return filepath.Join(home, "Sort")
}

// Default returns the built-in rules document.
func Default() Rules {
	return Rules{
		Global: GlobalRules{
			SortRoot:              SuggestedSortRoot(),
			CaseInsensitiveExt:    true,
			CollisionPolicy:       CollisionPolicyRename,
			UnknownGoesToMisc:     true,
			NoExtensionGoesToMisc: true,
			MinFileAgeSeconds:     10,
			CleanupEmptyFolders: CleanupRules{
				Enabled:       true,
				MinAgeSeconds: 60,
				Mode:          CleanupModeTrash,
			},
		},
		Categories: []CategoryRule{
			{
				ID:              "documents",
				Name:            "Documents",
				TargetSubfolder: "Documents",
				Extensions: []string{
					"doc", "docx", "rtf", "txt", "md", "pdf", "odt", "xls", "xlsx",
					"ods", "csv", "ppt", "pptx", "epub",
				},
			},
			{
				ID:              "images",
				Name:            "Images",
				TargetSubfolder: "Images",
				Extensions: []string{
					"jpg", "jpeg", "png", "gif", "bmp", "webp", "tif", "tiff",
					"svg", "ico", "psd",
				},
			},
			{
				ID:              "video",
				Name:            "Video",
				TargetSubfolder: "Video",
				Extensions:      []string{"mp4", "mkv", "mov", "avi", "wmv", "webm", "m4v"},
			},
			{
				ID:              "audio",
				Name:            "Audio",
				TargetSubfolder: "Audio",
				Extensions:      []string{"mp3", "wav", "flac", "aac", "m4a", "ogg"},
			},
			{
				ID:              "archives",
				Name:            "Archives",
				TargetSubfolder: "Archives",
				Extensions:      []string{"zip", "rar", "7z", "tar", "gz", "tgz", "bz2", "iso"},
			},
			{
				ID:              "code",
				Name:            "Code",
				TargetSubfolder: "Code",
				Extensions: []string{
					"py", "js", "ts", "html", "htm", "css", "c", "cpp", "h", "hpp",
					"cs", "java", "sh", "bat", "ps1", "json", "yaml", "yml", "xml",
				},
			},
			{
				ID:              "executables",
				Name:            "Executables",
				TargetSubfolder: "Executables",
				Extensions:      []string{"exe", "msi", "deb", "rpm", "app", "apk", "jar"},
			},
			{
				ID:              "data",
				Name:            "Data",
				TargetSubfolder: "Data",
				Extensions:      []string{"db", "sqlite", "sql", "parquet"},
			},
		},
		Misc: MiscRule{
			Name:            "Misc",
			TargetSubfolder: "Misc",
		},
	}
}

// NormalizeExtension trims whitespace and a leading dot, lowering the case
// when caseInsensitive is set.
func NormalizeExtension(ext string, caseInsensitive bool) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if caseInsensitive {
		return strings.ToLower(ext)
	}
	return ext
}

// ExtensionLookup builds the extension-to-subfolder map. When an extension
// appears in more than one category the first category wins, matching the
// validation warning.
func ExtensionLookup(r *Rules) map[string]string {
	lookup := make(map[string]string)
	for _, category := range r.Categories {
		for _, ext := range category.Extensions {
			key := NormalizeExtension(ext, r.Global.CaseInsensitiveExt)
			if key == "" {
				continue
			}
			if _, exists := lookup[key]; !exists {
				lookup[key] = category.TargetSubfolder
			}
		}
	}
	return lookup
}

// ProtectedTopLevelFolders returns the subfolder names under the sort root
// that runs must never scan or clean: every category target, the misc target,
// and the undo quarantine.
func ProtectedTopLevelFolders(r *Rules) map[string]struct{} {
	protected := make(map[string]struct{}, len(r.Categories)+2)
	for _, category := range r.Categories {
		protected[category.TargetSubfolder] = struct{}{}
	}
	protected[r.Misc.TargetSubfolder] = struct{}{}
	protected[RestoredFolderName] = struct{}{}
	return protected
}

// Target is the outcome of classifying a single file name: either a
// destination subfolder or a reason the file stays put.
type Target struct {
	Subfolder string
	Skip      bool
	Reason    string
}

// ClassifyPath maps a file path to its destination subfolder using the
// precomputed lookup, honouring the misc fallbacks for unknown and
// extensionless names.
func ClassifyPath(r *Rules, lookup map[string]string, path string) Target {
	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	// Dotfiles like .gitignore carry no extension; the leading dot is
	// part of the name.
	if strings.HasPrefix(base, ".") && !strings.Contains(base[1:], ".") {
		ext = ""
	}
	if ext == "" {
		if r.Global.NoExtensionGoesToMisc {
			return Target{Subfolder: r.Misc.TargetSubfolder}
		}
		return Target{Skip: true, Reason: "no extension and noExtensionGoesToMisc=false"}
	}

	key := NormalizeExtension(ext, r.Global.CaseInsensitiveExt)
	if subfolder, ok := lookup[key]; ok {
		return Target{Subfolder: subfolder}
	}

	if r.Global.UnknownGoesToMisc {
		return Target{Subfolder: r.Misc.TargetSubfolder}
	}
	return Target{Skip: true, Reason: fmt.Sprintf("unknown extension '.%s' and unknownGoesToMisc=false", key)}
}

// EnsureSortRootDirs creates the sort root and every protected subfolder so
// runs and the watcher always find their targets in place.
func EnsureSortRootDirs(r *Rules) error {
	root := r.Global.SortRoot
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create sort root: %w", err)
	}
	for folder := range ProtectedTopLevelFolders(r) {
		if folder == RestoredFolderName {
			continue
		}
		if err := os.MkdirAll(filepath.Join(root, folder), 0o755); err != nil {
			return fmt.Errorf("create category folder %q: %w", folder, err)
		}
	}
	return nil
}
