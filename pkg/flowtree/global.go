package flowtree

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/randalmurphal/flowtree/pkg/flowtree/archive"
	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// GlobalReport is the report of a whole run, returned by Run.
type GlobalReport[T any] struct {
	Report[T]

	runID    string
	started  time.Time
	duration time.Duration
}

// RunID returns the run identifier.
func (g *GlobalReport[T]) RunID() string { return g.runID }

// Started returns when the run started.
func (g *GlobalReport[T]) Started() time.Time { return g.started }

// Duration returns how long the run took.
func (g *GlobalReport[T]) Duration() time.Duration { return g.duration }

// Root returns the execution trace of the root node.
func (g *GlobalReport[T]) Root() *Execution { return g.exec }

// Tree renders which nodes ran and their statuses.
func (g *GlobalReport[T]) Tree() string { return g.exec.Tree() }

// Trail returns every error raised during the run in execution order,
// including errors later retried away or recovered. Warnings are listed
// separately by WarningTrail.
func (g *GlobalReport[T]) Trail() []*fault.FlowError { return g.exec.Trail() }

// WarningTrail returns every warning raised during the run in execution
// order, including warnings of attempts that were retried away.
func (g *GlobalReport[T]) WarningTrail() []*fault.FlowError { return g.exec.WarningTrail() }

// TrailString renders Trail as a numbered list.
func (g *GlobalReport[T]) TrailString() string { return FormatTrail(g.Trail()) }

// Snapshot returns a serialisable summary of the run.
func (g *GlobalReport[T]) Snapshot() Snapshot {
	root := ""
	if g.exec != nil {
		root = g.exec.Name
	}
	return Snapshot{
		RunID:    g.runID,
		Root:     root,
		Status:   g.Status(),
		Started:  g.started,
		Duration: g.duration,
		Errors:   g.Errors(),
		Warnings: g.Warnings(),
		Tree:     g.exec,
	}
}

// Snapshot is the JSON form of a GlobalReport, without the context.
type Snapshot struct {
	RunID    string             `json:"run_id"`
	Root     string             `json:"root"`
	Status   Status             `json:"status"`
	Started  time.Time          `json:"started"`
	Duration time.Duration      `json:"duration"`
	Errors   []*fault.FlowError `json:"errors,omitempty"`
	Warnings []*fault.FlowError `json:"warnings,omitempty"`
	Tree     *Execution         `json:"tree"`
}

// TreeString renders the execution tree.
func (s Snapshot) TreeString() string { return s.Tree.Tree() }

// Trail returns every error raised during the run.
func (s Snapshot) Trail() []*fault.FlowError { return s.Tree.Trail() }

// WarningTrail returns every warning raised during the run.
func (s Snapshot) WarningTrail() []*fault.FlowError { return s.Tree.WarningTrail() }

// SaveSnapshot archives s in store.
func SaveSnapshot(store archive.Store, s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return store.Save(archive.Record{
		RunID:    s.RunID,
		Root:     s.Root,
		Status:   s.Status.String(),
		Started:  s.Started,
		Duration: s.Duration,
		Data:     data,
	})
}

// LoadSnapshot reads the snapshot of runID from store.
func LoadSnapshot(store archive.Store, runID string) (Snapshot, error) {
	rec, err := store.Load(runID)
	if err != nil {
		return Snapshot{}, err
	}
	var s Snapshot
	if err := json.Unmarshal(rec.Data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", runID, err)
	}
	return s, nil
}
