package flowtree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// Status is the derived outcome of a report.
type Status int

const (
	// StatusSuccess means no errors and no warnings.
	StatusSuccess Status = iota
	// StatusWarning means warnings but no errors.
	StatusWarning
	// StatusError means at least one error.
	StatusError
)

// String returns SUCCESS, WARNING or ERROR.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusWarning:
		return "WARNING"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus parses the output of Status.String.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS":
		return StatusSuccess, nil
	case "WARNING":
		return StatusWarning, nil
	case "ERROR":
		return StatusError, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// statusOf derives a status from error and warning counts.
func statusOf(errs, warns int) Status {
	switch {
	case errs > 0:
		return StatusError
	case warns > 0:
		return StatusWarning
	default:
		return StatusSuccess
	}
}

// Report is the immutable outcome of executing one node: the resulting
// context, the errors and the warnings collected.
//
// Build reports with Success, Failure and their variants.
type Report[T any] struct {
	context  T
	errors   []*fault.FlowError
	warnings []*fault.FlowError

	// exec is attached by the executor once the node finishes.
	exec *Execution
	// children are the executions of child nodes, handed to the executor.
	children []*Execution
}

func newReport[T any](c T, errs, warns []*fault.FlowError) Report[T] {
	return Report[T]{
		context:  c,
		errors:   concatErrors(errs),
		warnings: concatErrors(warns),
	}
}

// Success reports a clean execution.
func Success[T any](c T) Report[T] {
	return newReport(c, nil, nil)
}

// SuccessWithWarning reports an execution that completed with one warning.
func SuccessWithWarning[T any](c T, warning *fault.FlowError) Report[T] {
	return newReport(c, nil, []*fault.FlowError{warning})
}

// SuccessWithWarnings reports an execution that completed with warnings.
func SuccessWithWarnings[T any](c T, warnings ...*fault.FlowError) Report[T] {
	return newReport(c, nil, warnings)
}

// Failure reports an execution that failed with err.
// A nil err is replaced by an UNCLASSIFIED error, so the report is always ERROR.
func Failure[T any](c T, err *fault.FlowError) Report[T] {
	return failureReport(c, []*fault.FlowError{err}, nil)
}

// Failures reports an execution that failed with several errors.
// Nil errors are skipped; with none left an UNCLASSIFIED error stands in.
func Failures[T any](c T, errs ...*fault.FlowError) Report[T] {
	return failureReport(c, errs, nil)
}

// FailureWithWarning reports a failed execution that also raised a warning.
func FailureWithWarning[T any](c T, err, warning *fault.FlowError) Report[T] {
	return failureReport(c, []*fault.FlowError{err}, []*fault.FlowError{warning})
}

// FailureWithWarnings reports a failed execution with errors and warnings.
func FailureWithWarnings[T any](c T, errs, warnings []*fault.FlowError) Report[T] {
	return failureReport(c, errs, warnings)
}

// missingFailure is the message of the UNCLASSIFIED error that stands in
// for a failure reported without any error.
const missingFailure = "failure reported without an error"

func failureReport[T any](c T, errs, warns []*fault.FlowError) Report[T] {
	r := newReport(c, errs, warns)
	if len(r.errors) == 0 {
		r.errors = []*fault.FlowError{{Kind: fault.KindUnclassified, Message: missingFailure}}
	}
	return r
}

// Context returns the resulting context.
func (r Report[T]) Context() T {
	return r.context
}

// Errors returns the collected errors in the order they were raised.
func (r Report[T]) Errors() []*fault.FlowError {
	return cloneErrors(r.errors)
}

// Warnings returns the collected warnings in the order they were raised.
func (r Report[T]) Warnings() []*fault.FlowError {
	return cloneErrors(r.warnings)
}

// Status derives the outcome: ERROR if there are errors, WARNING if there
// are only warnings, SUCCESS otherwise.
func (r Report[T]) Status() Status {
	return statusOf(len(r.errors), len(r.warnings))
}

// Err joins the report's errors, or returns nil when there are none.
func (r Report[T]) Err() error {
	if len(r.errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.errors))
	for i, e := range r.errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Execution returns the trace of the node that produced this report, or
// nil for reports that were not produced by a node.
func (r Report[T]) Execution() *Execution {
	return r.exec
}

// String summarises the report.
func (r Report[T]) String() string {
	return fmt.Sprintf("%s (%d errors, %d warnings)", r.Status(), len(r.errors), len(r.warnings))
}

func (r Report[T]) withChildren(children ...*Execution) Report[T] {
	r.children = nil
	for _, c := range children {
		if c != nil {
			r.children = append(r.children, c)
		}
	}
	return r
}

// passThrough re-issues a child's report as the parent's result.
func passThrough[T any](child Report[T]) Report[T] {
	return newReport(child.context, child.errors, child.warnings).withChildren(child.exec)
}
