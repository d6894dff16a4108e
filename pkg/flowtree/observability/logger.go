// Package observability provides logging, metrics and tracing for flow runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in. Every logging helper accepts a nil logger and
// does nothing with it; metrics and tracing have no-op implementations.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// EnrichLogger adds run and node context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "charge", 2)
//	enriched.Info("calling gateway") // includes run_id, node, attempt
func EnrichLogger(logger *slog.Logger, runID, node string, attempt int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(RunID(runID), NodeName(node), Attempt(attempt))
}

// LogRunStart logs the start of a run.
func LogRunStart(logger *slog.Logger, runID, root string) {
	if logger == nil {
		return
	}
	logger.Info("flow run starting", RunID(runID), Root(root))
}

// LogRunComplete logs a run that produced a report.
// The level follows the report status.
func LogRunComplete(logger *slog.Logger, runID, root, status string, durationMs float64, nodes int) {
	if logger == nil {
		return
	}
	logger.Log(context.Background(), runLevel(status), "flow run completed",
		RunID(runID),
		Root(root),
		Status(status),
		DurationMs(durationMs),
		slog.Int("nodes_executed", nodes),
	)
}

// LogRunCancelled logs a run abandoned because its context ended.
func LogRunCancelled(logger *slog.Logger, runID, root string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("flow run cancelled", RunID(runID), Root(root), Err(err), DurationMs(durationMs))
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, node, nodeType string, attempt int) {
	if logger == nil {
		return
	}
	logger.Debug("node starting", NodeName(node), NodeType(nodeType), Attempt(attempt))
}

// LogNodeComplete logs node completion. Successful nodes log at debug,
// warnings at warn and errors at error level.
func LogNodeComplete(logger *slog.Logger, node, nodeType, status string, durationMs float64, errs []error) {
	if logger == nil {
		return
	}
	attrs := []any{NodeName(node), NodeType(nodeType), Status(status), DurationMs(durationMs)}
	if len(errs) > 0 {
		attrs = append(attrs, Err(errs[0]), slog.Int("error_count", len(errs)))
	}
	logger.Log(context.Background(), levelFor(status), "node completed", attrs...)
}

// LogRetry logs a scheduled retry.
func LogRetry(logger *slog.Logger, node string, attempt, maxAttempts int, delay time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("retrying node",
		NodeName(node),
		Attempt(attempt),
		slog.Int("max_attempts", maxAttempts),
		slog.Int64("delay_ms", delay.Milliseconds()),
	)
}

// LogRecovery logs a recover branch taking over from a failed try branch.
func LogRecovery(logger *slog.Logger, node string, recovered int) {
	if logger == nil {
		return
	}
	logger.Info("recovering node", NodeName(node), slog.Int("recovered_errors", recovered))
}

// LogArchiveError logs a report that could not be archived (non-fatal).
func LogArchiveError(logger *slog.Logger, runID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("report archive failed", RunID(runID), Err(err))
}

func runLevel(status string) slog.Level {
	if status == "SUCCESS" {
		return slog.LevelInfo
	}
	return levelFor(status)
}

func levelFor(status string) slog.Level {
	switch status {
	case "ERROR":
		return slog.LevelError
	case "WARNING":
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
