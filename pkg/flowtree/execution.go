package flowtree

import (
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// Execution records one execution of one node.
//
// The engine attaches an Execution to every report a node returns, with the
// executions of its children nested below it. Retryable nodes contribute one
// child execution per attempt.
type Execution struct {
	Name     string             `json:"name"`
	NodeID   string             `json:"node_id"`
	Type     NodeType           `json:"type"`
	Status   Status             `json:"status"`
	Attempt  int                `json:"attempt,omitempty"`
	Errors   []*fault.FlowError `json:"errors,omitempty"`
	Warnings []*fault.FlowError `json:"warnings,omitempty"`
	Started  time.Time          `json:"started"`
	Duration time.Duration      `json:"duration"`
	Children []*Execution       `json:"children,omitempty"`
}

// Walk visits e and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func (e *Execution) Walk(fn func(exec *Execution, depth int) bool) {
	e.walk(fn, 0)
}

func (e *Execution) walk(fn func(*Execution, int) bool, depth int) {
	if e == nil || !fn(e, depth) {
		return
	}
	for _, c := range e.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of executions in the tree rooted at e.
func (e *Execution) Count() int {
	n := 0
	e.Walk(func(*Execution, int) bool {
		n++
		return true
	})
	return n
}

// Find returns the executions with the given node name, in walk order.
func (e *Execution) Find(name string) []*Execution {
	var out []*Execution
	e.Walk(func(x *Execution, _ int) bool {
		if x.Name == name {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Trail returns every error that originated in the tree, each listed once
// at the execution where it was raised. Children come before their parent,
// so the order follows execution. Warnings are not included; see
// WarningTrail.
func (e *Execution) Trail() []*fault.FlowError {
	var out []*fault.FlowError
	e.raised(&out, func(x *Execution) []*fault.FlowError { return x.Errors })
	return out
}

// WarningTrail returns every warning raised directly by a node, in the
// same order as Trail. Errors demoted to warnings by a recovery appear in
// Trail at the node that raised them, not here.
func (e *Execution) WarningTrail() []*fault.FlowError {
	var out []*fault.FlowError
	e.raised(&out, func(x *Execution) []*fault.FlowError { return x.Warnings })
	return out
}

func (e *Execution) raised(out *[]*fault.FlowError, issues func(*Execution) []*fault.FlowError) {
	if e == nil {
		return
	}
	for _, c := range e.Children {
		c.raised(out, issues)
	}
	for _, err := range issues(e) {
		if n := err.Node(); n != nil && n.ID() == e.NodeID {
			*out = append(*out, err)
		}
	}
}

// Tree renders the execution tree as text, one node per line:
//
//	checkout (sequential) ERROR
//	├── validate (step) SUCCESS
//	└── charge (retryable) ERROR
//	    ├── call-gateway (step) ERROR attempt 1
//	    └── call-gateway (step) ERROR attempt 2
func (e *Execution) Tree() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	writeLine(&b, e, false)
	e.writeChildren(&b, "")
	return b.String()
}

func (e *Execution) writeChildren(b *strings.Builder, prefix string) {
	for i, c := range e.Children {
		last := i == len(e.Children)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}
		b.WriteString(prefix)
		b.WriteString(branch)
		writeLine(b, c, e.Type == TypeRetryable)
		c.writeChildren(b, prefix+indent)
	}
}

func writeLine(b *strings.Builder, e *Execution, showAttempt bool) {
	fmt.Fprintf(b, "%s (%s) %s", e.Name, e.Type, e.Status)
	if showAttempt && e.Attempt > 0 {
		fmt.Fprintf(b, " attempt %d", e.Attempt)
	}
	b.WriteByte('\n')
}

// FormatTrail renders errors as a numbered list.
func FormatTrail(errs []*fault.FlowError) string {
	var b strings.Builder
	for i, err := range errs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, err.Error())
	}
	return b.String()
}
