// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Logs go to stderr by default so command output on stdout stays clean.
// Leveled returns an adapter satisfying go-retryablehttp's LeveledLogger,
// letting the HTTP transport report retries through the same logger.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("service call started", zap.String("call_id", id))
//	logger.Error("service call failed", zap.Error(err))
package logging
