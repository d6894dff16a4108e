package fault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrBuilder matches every builder-kind FlowError via errors.Is.
var ErrBuilder = errors.New("invalid flow configuration")

// Node identifies the flow node a failure occurred in.
// The engine sets it after catching the failure; the code raising the
// failure never does.
type Node interface {
	Name() string
	ID() string
}

// nodeRef is a detached Node, used when a FlowError is decoded from JSON.
type nodeRef struct {
	name string
	id   string
}

func (n nodeRef) Name() string { return n.name }
func (n nodeRef) ID() string   { return n.id }

// NodeRef returns a Node with the given name and ID.
func NodeRef(name, id string) Node {
	return nodeRef{name: name, id: id}
}

// FlowError is a classified failure reported by a flow node.
type FlowError struct {
	// Kind decides which recovery and retry filters apply.
	Kind Kind

	// Message is the human readable description. May be empty when Cause
	// already says everything.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	node Node
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	var b strings.Builder
	if e.node != nil {
		fmt.Fprintf(&b, "node %s: ", e.node.Name())
	}
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *FlowError) Unwrap() error {
	return e.Cause
}

// Is reports builder-kind errors as ErrBuilder.
func (e *FlowError) Is(target error) bool {
	return target == ErrBuilder && e.Kind == KindBuilder
}

// Node returns the node the failure occurred in, or nil if it has not been
// attributed yet.
func (e *FlowError) Node() Node {
	return e.node
}

// WithNode returns a copy of e attributed to n. Errors that already carry a
// node and builder errors are returned unchanged.
func (e *FlowError) WithNode(n Node) *FlowError {
	if e.node != nil || e.Kind == KindBuilder || n == nil {
		return e
	}
	cp := *e
	cp.node = n
	return &cp
}

// Technical creates a technical failure.
func Technical(message string, cause error) *FlowError {
	return &FlowError{Kind: KindTechnical, Message: message, Cause: cause}
}

// Technicalf creates a technical failure with a formatted message.
func Technicalf(format string, args ...any) *FlowError {
	return &FlowError{Kind: KindTechnical, Message: fmt.Sprintf(format, args...)}
}

// Functional creates a functional failure.
func Functional(message string, cause error) *FlowError {
	return &FlowError{Kind: KindFunctional, Message: message, Cause: cause}
}

// Functionalf creates a functional failure with a formatted message.
func Functionalf(format string, args ...any) *FlowError {
	return &FlowError{Kind: KindFunctional, Message: fmt.Sprintf(format, args...)}
}

// Builderf creates a builder failure with a formatted message.
func Builderf(format string, args ...any) *FlowError {
	return &FlowError{Kind: KindBuilder, Message: fmt.Sprintf(format, args...)}
}

// Classify converts any error into a FlowError.
//
// A *FlowError is returned as is. An error wrapping a *FlowError keeps the
// wrapped kind and node, with the full error as cause. Anything else becomes
// an unclassified failure.
func Classify(err error) *FlowError {
	if err == nil {
		return nil
	}

	var fe *FlowError
	if errors.As(err, &fe) {
		if fe == err {
			return fe
		}
		return &FlowError{Kind: fe.Kind, Cause: err, node: fe.node}
	}

	return &FlowError{Kind: KindUnclassified, Cause: err}
}

// PanicError captures a panic recovered while executing user code.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

type flowErrorJSON struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
	Cause   string `json:"cause,omitempty"`
	Node    string `json:"node,omitempty"`
	NodeID  string `json:"node_id,omitempty"`
}

// MarshalJSON flattens the error for archiving. The cause is kept as text.
func (e *FlowError) MarshalJSON() ([]byte, error) {
	out := flowErrorJSON{Kind: e.Kind.String(), Message: e.Message}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	if e.node != nil {
		out.Node = e.node.Name()
		out.NodeID = e.node.ID()
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores an archived error. The cause comes back as an
// opaque error carrying the original text.
func (e *FlowError) UnmarshalJSON(data []byte) error {
	var in flowErrorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return err
	}
	*e = FlowError{Kind: kind, Message: in.Message}
	if in.Cause != "" {
		e.Cause = errors.New(in.Cause)
	}
	if in.Node != "" || in.NodeID != "" {
		e.node = nodeRef{name: in.Node, id: in.NodeID}
	}
	return nil
}
