// Package rules owns the classification rules document: its schema, built-in
// defaults, validation, extension lookup, and the JSON-backed store the
// daemon reads and writes.
//
// The rules document is the single source of truth for the sort root, the
// category folders, and the safety knobs (minimum file age, misc fallbacks,
// cleanup policy). The store persists it as a pretty-printed JSON file and
// guards concurrent access so IPC handlers and the pipeline see a consistent
// snapshot.
package rules
