// Package archive stores the reports of finished flow runs.
//
// An archive keeps one Record per run: a few indexed fields and the JSON
// snapshot of the run's GlobalReport. It holds no execution state, so
// nothing can be resumed from it.
package archive

import (
	"errors"
	"time"
)

// Store persists run records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a record. Overwrites an existing record with the same RunID.
	Save(rec Record) error

	// Load retrieves a record.
	// Returns ErrNotFound if the run is not archived.
	Load(runID string) (Record, error)

	// List returns summaries of the records matching q, oldest first.
	// Returns an empty slice (not error) if nothing matches.
	List(q Query) ([]Info, error)

	// Delete removes a record.
	// Returns nil if the run is not archived.
	Delete(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Record is one archived run.
type Record struct {
	RunID    string
	Root     string
	Status   string
	Started  time.Time
	Duration time.Duration

	// Data is the JSON snapshot of the run report.
	Data []byte
}

// Info summarises a record without its data.
type Info struct {
	RunID    string
	Root     string
	Status   string
	Started  time.Time
	Duration time.Duration
	Size     int64
}

// Query filters List results. Zero fields match everything.
type Query struct {
	Root   string
	Status string

	// Limit keeps only the most recent records when positive.
	Limit int
}

func (q Query) matches(root, status string) bool {
	return (q.Root == "" || q.Root == root) && (q.Status == "" || q.Status == status)
}

// Sentinel errors for archive operations.
var (
	// ErrNotFound indicates a run is not archived.
	ErrNotFound = errors.New("run not found in archive")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("archive store closed")

	// ErrInvalidRecord indicates a record without a run ID.
	ErrInvalidRecord = errors.New("archive record has no run id")
)

func (r Record) info() Info {
	return Info{
		RunID:    r.RunID,
		Root:     r.Root,
		Status:   r.Status,
		Started:  r.Started,
		Duration: r.Duration,
		Size:     int64(len(r.Data)),
	}
}
