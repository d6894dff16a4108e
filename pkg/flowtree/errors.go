package flowtree

import (
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// Sentinel errors returned by Run.
var (
	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilRoot indicates Run() was called without a root flow.
	ErrNilRoot = errors.New("root flow cannot be nil")

	// ErrNilState indicates Run() was called with a nil initial state.
	ErrNilState = errors.New("initial state cannot be nil")
)

// ErrInvalidFlow matches every error returned by the New constructors.
//
//	if errors.Is(err, flowtree.ErrInvalidFlow) { ... }
var ErrInvalidFlow = fault.ErrBuilder

// CancellationError is returned by Run when its context ended before the
// run completed. No report is produced for a cancelled run.
type CancellationError struct {
	// RunID identifies the abandoned run.
	RunID string
	// Root is the name of the root flow.
	Root string
	// Elapsed is the time the run was active.
	Elapsed time.Duration
	// Cause is the underlying cancellation cause (context.Canceled or context.DeadlineExceeded).
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("run %s of %s cancelled after %s: %v", e.RunID, e.Root, e.Elapsed.Round(time.Millisecond), e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
