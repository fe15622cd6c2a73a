// Package logging builds the slog loggers used across CineScope.
//
// Two handler formats are supported: a console handler that renders
// "TIME LEVEL component: message key=value" lines for interactive use, and
// the standard JSON handler for machine-readable logs. Attr helpers and the
// shared field-name constants keep log keys consistent between the pipeline,
// the providers, and the CLI.
package logging
