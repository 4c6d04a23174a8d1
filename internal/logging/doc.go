// Package logging builds the slog loggers used across the render pipeline
// and provides typed attribute helpers plus component-tagged child loggers.
//
// Logs go to stderr (and optionally a file under the configured log
// directory) so stdout stays clean for machine-readable command output.
package logging
