package main

import (
	"encoding/json"
	"io"
)

// writeJSON encodes v to w as two-space indented JSON with a trailing
// newline, so --json output pipes cleanly into jq.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
