package observability

import "log/slog"

// RunID returns the run identifier attribute.
func RunID(id string) slog.Attr {
	return slog.String("run_id", id)
}

// Root returns the root node name attribute.
func Root(name string) slog.Attr {
	return slog.String("root", name)
}

// NodeName returns the node name attribute.
func NodeName(name string) slog.Attr {
	return slog.String("node", name)
}

// NodeType returns the node type attribute.
func NodeType(t string) slog.Attr {
	return slog.String("node_type", t)
}

// Status returns the report status attribute.
func Status(status string) slog.Attr {
	return slog.String("status", status)
}

// Attempt returns the attempt number attribute.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// DurationMs returns the elapsed time attribute in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64("duration_ms", ms)
}

// Err returns the error attribute. A nil error yields an empty message.
func Err(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
