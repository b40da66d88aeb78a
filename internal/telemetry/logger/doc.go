// Package logger builds the structured loggers used by branchweb.
//
// It wraps log/slog:
//   - text or JSON output
//   - redaction of attributes whose keys look like credentials
//   - runtime level changes through SetLevel
//   - an optional separate sink for records below INFO
//   - request ID propagation through the context
//
// Components receive a plain *slog.Logger.
package logger
