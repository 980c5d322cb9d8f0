// Package storage implements the primary/fallback persistence policy for
// finished speech segments. Segments are trimmed, named by timestamp, and
// written to the primary path first, falling back to a local backup
// directory that is created at startup.
package storage
