// Package logging builds the slog loggers used across rapidphoto.
//
// Loggers are constructed from config (level, format, log directory) and
// write to stdout plus an optional log file. Attr helpers and standardized
// field keys keep structured output consistent between the scheduler, the
// transfer client, and the CLI.
package logging
