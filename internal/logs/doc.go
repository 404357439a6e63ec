// Package logs reads daemon log files with bounded memory.
//
// A negative offset means "start from the last N lines"; a non-negative
// offset resumes from a previous read. Follow mode polls the file until new
// lines appear, the wait window expires, or the context is cancelled, which
// gives the CLI tail-like behavior without keeping the file open.
package logs
