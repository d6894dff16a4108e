package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Settings configures how flows are run.
type Settings struct {
	Logging  Logging  `yaml:"logging" json:"logging"`
	Tracing  bool     `yaml:"tracing" json:"tracing"`
	Metrics  bool     `yaml:"metrics" json:"metrics"`
	Parallel Parallel `yaml:"parallel" json:"parallel"`
	Archive  Archive  `yaml:"archive" json:"archive"`
}

// Logging configures the run logger.
type Logging struct {
	// Level is debug, info, warn, error or off.
	Level string `yaml:"level" json:"level"`

	// Format is text or json.
	Format string `yaml:"format" json:"format"`
}

// Parallel configures parallel nodes.
type Parallel struct {
	// MaxConcurrency bounds the branches a parallel node runs at once when
	// the node sets no bound itself. Zero means unbounded.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency"`
}

// Archive configures where finished run reports are stored.
type Archive struct {
	// Driver is "", memory or sqlite. Empty disables archiving.
	Driver string `yaml:"driver" json:"driver"`

	// Path is the SQLite database file.
	Path string `yaml:"path" json:"path"`
}

// Archive drivers.
const (
	DriverNone   = ""
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Defaults returns the settings used when nothing is configured: info
// level text logs, no tracing, no metrics, unbounded parallelism and no
// archive.
func Defaults() Settings {
	return Settings{
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Validate checks every field and reports all problems at once.
func (s Settings) Validate() error {
	var errs []error
	if _, _, err := parseLevel(s.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(s.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", s.Logging.Format))
	}
	if s.Parallel.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("parallel.max_concurrency: must not be negative, got %d", s.Parallel.MaxConcurrency))
	}
	switch s.Archive.Driver {
	case DriverNone, DriverMemory:
	case DriverSQLite:
		if s.Archive.Path == "" {
			errs = append(errs, errors.New("archive.path: required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("archive.driver: unknown driver %q", s.Archive.Driver))
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger described by s.Logging, writing to w.
// It returns nil when logging is off.
func (s Settings) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, on, err := parseLevel(s.Logging.Level)
	if err != nil {
		return nil, err
	}
	if !on {
		return nil, nil
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(s.Logging.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("logging.format: unknown format %q", s.Logging.Format)
	}
}

// parseLevel maps a level name to a slog level. The bool is false for
// "off".
func parseLevel(s string) (slog.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true, nil
	case "", "info":
		return slog.LevelInfo, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "error":
		return slog.LevelError, true, nil
	case "off", "none":
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("logging.level: unknown level %q", s)
	}
}
