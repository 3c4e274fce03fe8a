// Package logging builds the slog loggers used by the GUI and the batch CLI.
// Records are written either as JSON (ts/level/msg keys) or as single-line
// console text prefixed with the record's component attribute.
package logging
