// Package logging provides a minimal logging interface and adapters for opinionsim.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that agents and the simulation driver use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - SimLogger with contextual helpers (component, agent, run)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	driver := simulation.New(llm, func(o *simulation.Options) { o.Logger = logger })
//
// All methods take slog style alternating key/value arguments.
package logging
