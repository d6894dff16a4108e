package flowtree

import (
	"context"
	"reflect"

	"github.com/google/uuid"
)

// NodeType identifies the kind of a flow node.
type NodeType string

// Node types.
const (
	TypeStep        NodeType = "step"
	TypeNoOp        NodeType = "noop"
	TypeSequential  NodeType = "sequential"
	TypeParallel    NodeType = "parallel"
	TypeConditional NodeType = "conditional"
	TypeSwitch      NodeType = "switch"
	TypeRecoverable NodeType = "recoverable"
	TypeRetryable   NodeType = "retryable"
)

// Flow is a node of a flow tree.
//
// The set of implementations is closed: Step, NoOp, Sequential, Parallel,
// Conditional, Switch, Recoverable and Retryable, each created by its New
// constructor. Nodes are immutable once built.
type Flow[T State[T]] interface {
	// Name returns the node name used in reports.
	Name() string

	// ID returns the node's unique identity. Clones get new IDs.
	ID() string

	// Type returns the node kind.
	Type() NodeType

	// Children returns the direct children in declaration order.
	Children() []Flow[T]

	// Clone returns a deep copy of the subtree with fresh identities.
	// An empty name keeps the current one.
	Clone(name string) Flow[T]

	// Execute runs the node once and returns its report. It never panics
	// and never returns a nil-context report.
	Execute(ctx context.Context, c T, meta Metadata) Report[T]

	base() *node
}

// node holds the identity shared by all node types.
type node struct {
	name string
	id   string
	typ  NodeType
}

func newNode(name string, typ NodeType) node {
	return node{name: name, id: uuid.NewString(), typ: typ}
}

// Name returns the node name.
func (n *node) Name() string { return n.name }

// ID returns the node identity.
func (n *node) ID() string { return n.id }

// Type returns the node kind.
func (n *node) Type() NodeType { return n.typ }

func (n *node) base() *node { return n }

// cloned returns a fresh identity for a clone of n.
func (n *node) cloned(name string) node {
	if name == "" {
		name = n.name
	}
	return newNode(name, n.typ)
}

// Must panics if err is non-nil. It is meant for trees assembled at
// package initialisation, where a builder error is a programming mistake.
//
//	var checkout = flowtree.Must(flowtree.NewSequential(cfg))
func Must[F any](f F, err error) F {
	if err != nil {
		panic(err)
	}
	return f
}

// Walk visits root and every descendant depth-first, parents first.
func Walk[T State[T]](root Flow[T], fn func(f Flow[T], depth int)) {
	walkFlow(root, fn, 0)
}

func walkFlow[T State[T]](f Flow[T], fn func(Flow[T], int), depth int) {
	if isNil(f) {
		return
	}
	fn(f, depth)
	for _, c := range f.Children() {
		walkFlow(c, fn, depth+1)
	}
}

// isNil reports whether v is nil or a nil pointer, map, slice, func or
// interface stored in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func cloneFlows[T State[T]](flows []Flow[T]) []Flow[T] {
	if flows == nil {
		return nil
	}
	out := make([]Flow[T], len(flows))
	for i, f := range flows {
		out[i] = f.Clone("")
	}
	return out
}
