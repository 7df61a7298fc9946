// Package helper provides testing utilities for the event log test suites.
//
// It contains spies for the observability interfaces, a slog handler that captures log records,
// and fixtures for a small order domain used across the engine tests.
package helper
