// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// The broker logs to stdout. The preloaded shim logs to stderr so it never
// interleaves with a host program's own stdout.
//
// Example Usage:
//
//	logger, err := logging.New(logging.BrokerConfig("info", false))
//	logger.Info("Broker listening", zap.String("socket", path))
//	logger.Error("Accept failed", zap.Error(err))
package logging
