// Package toggles implements the request-scoped feature gates from
// spec.md §4.5: process-wide, read-mostly state with a small lookup
// function and an injectable backing, so gates can be flipped in tests
// without a global mutable singleton (spec.md §9).
package toggles

import "context"

// Names of the three gates spec.md treats as contracts, not identifiers.
const (
	HighLevelAPI             = "HIGH_LEVEL_API"
	CheckOwningApplication    = "CHECK_OWNING_APPLICATION"
	SendBatchViaOutputStream = "SEND_BATCH_VIA_OUTPUT_STREAM"
)

// Service answers whether a named gate is enabled for the current request.
type Service interface {
	Enabled(ctx context.Context, name string) bool
}

// Static is the simplest backing: an in-memory map, safe for concurrent
// reads, set once at startup from config.Config.Toggles and never mutated
// in production. Tests construct their own Static with different values.
type Static map[string]bool

// Enabled reports the configured value, defaulting to false for unknown
// gate names.
func (s Static) Enabled(_ context.Context, name string) bool {
	return s[name]
}

// FromDefaults builds a Static backing from the three known defaults. It is
// the production wiring path; the three-argument form (rather than taking
// config.Config directly) keeps this package free of an import cycle with
// internal/config.
func FromDefaults(highLevelAPI, checkOwningApplication, sendBatchViaOutputStream bool) Static {
	return Static{
		HighLevelAPI:             highLevelAPI,
		CheckOwningApplication:   checkOwningApplication,
		SendBatchViaOutputStream: sendBatchViaOutputStream,
	}
}
