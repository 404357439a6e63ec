package rules

import (
	"fmt"
	"strings"
)

// ValidationResult reports structural errors and advisory warnings for a
// rules document. A document with errors is rejected before use.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks a rules document for structural problems. Errors block the
// document from being applied; warnings flag overlaps the engine resolves by
// first-match-wins.
func Validate(r *Rules) ValidationResult {
	var errors, warnings []string

	if strings.TrimSpace(r.Global.SortRoot) == "" {
		errors = append(errors, "sortRoot cannot be empty")
	}
	if len(r.Categories) == 0 {
		errors = append(errors, "at least one category is required")
	}

	seenExt := map[string]string{}
	seenFolder := map[string]string{}
	for _, category := range r.Categories {
		if strings.TrimSpace(category.Name) == "" {
			errors = append(errors, fmt.Sprintf("category '%s' has empty name", category.ID))
		}
		if strings.TrimSpace(category.TargetSubfolder) == "" {
			errors = append(errors, fmt.Sprintf("category '%s' has empty targetSubfolder", category.Name))
		} else if prev, dup := seenFolder[category.TargetSubfolder]; dup {
			errors = append(errors, fmt.Sprintf(
				"targetSubfolder '%s' is used by both '%s' and '%s'",
				category.TargetSubfolder, prev, category.Name))
		} else {
			seenFolder[category.TargetSubfolder] = category.Name
		}

		for _, ext := range category.Extensions {
			norm := NormalizeExtension(ext, r.Global.CaseInsensitiveExt)
			if norm == "" {
				warnings = append(warnings, fmt.Sprintf("category '%s' includes empty extension", category.Name))
				continue
			}
			if prev, dup := seenExt[norm]; dup {
				warnings = append(warnings, fmt.Sprintf(
					"extension '%s' is defined in both '%s' and '%s'; first match wins",
					norm, prev, category.Name))
				continue
			}
			seenExt[norm] = category.Name
		}
	}

	if strings.TrimSpace(r.Misc.TargetSubfolder) == "" {
		errors = append(errors, "misc targetSubfolder cannot be empty")
	} else if owner, clash := seenFolder[r.Misc.TargetSubfolder]; clash {
		errors = append(errors, fmt.Sprintf(
			"misc targetSubfolder '%s' collides with category '%s'",
			r.Misc.TargetSubfolder, owner))
	}
	if r.Global.MinFileAgeSeconds < 0 {
		errors = append(errors, "minFileAgeSeconds must be >= 0")
	}
	if r.Global.CleanupEmptyFolders.MinAgeSeconds < 0 {
		errors = append(errors, "cleanupEmptyFolders.minAgeSeconds must be >= 0")
	}

	return ValidationResult{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}
