package flowtree

import (
	"context"
	"fmt"
)

// KeyFunc extracts the key a Switch dispatches on. It is evaluated exactly
// once per execution.
type KeyFunc[T any, K comparable] func(c T) (K, error)

// Case binds a key to the flow a Switch runs for it.
type Case[T State[T], K comparable] struct {
	Key  K
	Flow Flow[T]
}

// SwitchConfig configures a Switch.
type SwitchConfig[T State[T], K comparable] struct {
	// Name identifies the node in reports. Required.
	Name string

	// Key extracts the dispatch key. Required.
	Key KeyFunc[T, K]

	// Cases map keys to flows. Keys must be unique. May be empty.
	Cases []Case[T, K]

	// Default runs when no case matches. Required.
	Default Flow[T]
}

// Switch runs the case matching a key extracted from the context, or the
// default. The chosen child receives the key as its Metadata data.
type Switch[T State[T], K comparable] struct {
	node
	key   KeyFunc[T, K]
	cases []Case[T, K]
	index map[K]int
	def   Flow[T]
}

var _ Flow[*Context] = (*Switch[*Context, string])(nil)

// NewSwitch validates cfg and builds a Switch.
func NewSwitch[T State[T], K comparable](cfg SwitchConfig[T, K]) (*Switch[T, K], error) {
	if err := checkName(TypeSwitch, cfg.Name); err != nil {
		return nil, err
	}
	if cfg.Key == nil {
		return nil, builderError(TypeSwitch, cfg.Name, "key function is required")
	}
	if err := checkChild(TypeSwitch, cfg.Name, "default", cfg.Default); err != nil {
		return nil, err
	}

	index := make(map[K]int, len(cfg.Cases))
	children := make([]Flow[T], 0, len(cfg.Cases)+1)
	for i, cs := range cfg.Cases {
		if err := checkChild(TypeSwitch, cfg.Name, fmt.Sprintf("case %v", cs.Key), cs.Flow); err != nil {
			return nil, err
		}
		if _, dup := index[cs.Key]; dup {
			return nil, builderError(TypeSwitch, cfg.Name, "duplicate case %v", cs.Key)
		}
		index[cs.Key] = i
		children = append(children, cs.Flow)
	}
	children = append(children, cfg.Default)
	if err := checkUnique(TypeSwitch, cfg.Name, children...); err != nil {
		return nil, err
	}

	return &Switch[T, K]{
		node:  newNode(cfg.Name, TypeSwitch),
		key:   cfg.Key,
		cases: append([]Case[T, K]{}, cfg.Cases...),
		index: index,
		def:   cfg.Default,
	}, nil
}

// Children returns the case flows in declaration order, then the default.
func (s *Switch[T, K]) Children() []Flow[T] {
	out := make([]Flow[T], 0, len(s.cases)+1)
	for _, cs := range s.cases {
		out = append(out, cs.Flow)
	}
	return append(out, s.def)
}

// Clone deep-copies the switch.
func (s *Switch[T, K]) Clone(name string) Flow[T] {
	cases := make([]Case[T, K], len(s.cases))
	for i, cs := range s.cases {
		cases[i] = Case[T, K]{Key: cs.Key, Flow: cs.Flow.Clone("")}
	}
	return &Switch[T, K]{
		node:  s.cloned(name),
		key:   s.key,
		cases: cases,
		index: s.index,
		def:   s.def.Clone(""),
	}
}

// Execute extracts the key and runs the matching child.
func (s *Switch[T, K]) Execute(ctx context.Context, c T, meta Metadata) Report[T] {
	return execute(ctx, s, c, meta, s.run)
}

func (s *Switch[T, K]) run(ctx context.Context, c T, meta Metadata) Report[T] {
	k, err := s.key(c)
	if err != nil {
		return Failure(c, failuref(err, "key extraction failed"))
	}
	child := s.def
	if i, ok := s.index[k]; ok {
		child = s.cases[i].Flow
	}
	return passThrough(child.Execute(ctx, c, meta.WithData(k)))
}
