// Package config loads, normalizes, and validates daemon configuration data.
//
// It supplies repository defaults rooted in the XDG base directories, expands
// user paths (including tilde shortcuts), and reads TOML files. The Config
// type centralizes every knob the daemon and CLI need: rule store and journal
// locations, the IPC socket, watcher debounce timing, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
