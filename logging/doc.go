// Package logging provides a minimal logging interface and adapters.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// used by sessions, stores and the runner. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - SessionLogger, a slog based logger with session context and domain helpers
//   - CharmAdapter for colored terminal output via charmbracelet/log
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	m, err := tripsession.New(func(o *tripsession.Options) { o.Logger = logger })
package logging
