package flowtree

import "context"

// Predicate decides which branch of a Conditional runs. It is evaluated
// exactly once per execution.
type Predicate[T any] func(c T) (bool, error)

// ConditionalConfig configures a Conditional.
type ConditionalConfig[T State[T]] struct {
	// Name identifies the node in reports. Required.
	Name string

	// Predicate chooses the branch. Required.
	Predicate Predicate[T]

	// IfTrue runs when Predicate returns true. Required.
	IfTrue Flow[T]

	// IfFalse runs when Predicate returns false. Required; use NoOp for
	// an empty branch.
	IfFalse Flow[T]
}

// Conditional runs one of two branches.
type Conditional[T State[T]] struct {
	node
	predicate Predicate[T]
	ifTrue    Flow[T]
	ifFalse   Flow[T]
}

var _ Flow[*Context] = (*Conditional[*Context])(nil)

// NewConditional validates cfg and builds a Conditional.
func NewConditional[T State[T]](cfg ConditionalConfig[T]) (*Conditional[T], error) {
	if err := checkName(TypeConditional, cfg.Name); err != nil {
		return nil, err
	}
	if cfg.Predicate == nil {
		return nil, builderError(TypeConditional, cfg.Name, "predicate is required")
	}
	if err := checkChild(TypeConditional, cfg.Name, "ifTrue", cfg.IfTrue); err != nil {
		return nil, err
	}
	if err := checkChild(TypeConditional, cfg.Name, "ifFalse", cfg.IfFalse); err != nil {
		return nil, err
	}
	if err := checkUnique(TypeConditional, cfg.Name, cfg.IfTrue, cfg.IfFalse); err != nil {
		return nil, err
	}
	return &Conditional[T]{
		node:      newNode(cfg.Name, TypeConditional),
		predicate: cfg.Predicate,
		ifTrue:    cfg.IfTrue,
		ifFalse:   cfg.IfFalse,
	}, nil
}

// Children returns the true and false branches.
func (n *Conditional[T]) Children() []Flow[T] {
	return []Flow[T]{n.ifTrue, n.ifFalse}
}

// Clone deep-copies the conditional.
func (n *Conditional[T]) Clone(name string) Flow[T] {
	return &Conditional[T]{
		node:      n.cloned(name),
		predicate: n.predicate,
		ifTrue:    n.ifTrue.Clone(""),
		ifFalse:   n.ifFalse.Clone(""),
	}
}

// Execute evaluates the predicate and runs the chosen branch.
func (n *Conditional[T]) Execute(ctx context.Context, c T, meta Metadata) Report[T] {
	return execute(ctx, n, c, meta, n.run)
}

func (n *Conditional[T]) run(ctx context.Context, c T, meta Metadata) Report[T] {
	ok, err := n.predicate(c)
	if err != nil {
		return Failure(c, failuref(err, "predicate failed"))
	}
	branch := n.ifFalse
	if ok {
		branch = n.ifTrue
	}
	return passThrough(branch.Execute(ctx, c, meta))
}
