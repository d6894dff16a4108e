// Package catalog keeps named sub-flow templates for reuse across trees.
//
// A flow node may be attached to a tree only once, so reuse goes through
// Clone. A Catalog does the cloning: every Instantiate returns a fresh
// copy of the template with its own identities, ready to be attached.
//
//	cat := catalog.New[*flowtree.Context]()
//	_ = cat.Register("notify", notifyFlow)
//
//	welcome, _ := cat.Instantiate("notify", "notify-welcome")
//	receipt, _ := cat.Instantiate("notify", "notify-receipt")
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/randalmurphal/flowtree/pkg/flowtree"
)

// Sentinel errors for catalog operations.
var (
	// ErrNotFound indicates no template is registered under a name.
	ErrNotFound = errors.New("template not found")

	// ErrDuplicate indicates a name is already registered.
	ErrDuplicate = errors.New("template already registered")
)

// Catalog is a thread-safe registry of flow templates indexed by name.
// It uses sync.RWMutex for read-heavy workloads.
type Catalog[T flowtree.State[T]] struct {
	mu        sync.RWMutex
	templates map[string]flowtree.Flow[T]
}

// New creates an empty catalog.
func New[T flowtree.State[T]]() *Catalog[T] {
	return &Catalog[T]{templates: make(map[string]flowtree.Flow[T])}
}

// Register stores a private clone of f under name. The caller keeps f and
// may attach it elsewhere.
func (c *Catalog[T]) Register(name string, f flowtree.Flow[T]) error {
	if name == "" {
		return errors.New("template name cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("template %q: flow cannot be nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.templates[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	c.templates[name] = f.Clone("")
	return nil
}

// Replace stores a private clone of f under name, replacing any existing
// template.
func (c *Catalog[T]) Replace(name string, f flowtree.Flow[T]) error {
	if name == "" {
		return errors.New("template name cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("template %q: flow cannot be nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[name] = f.Clone("")
	return nil
}

// Instantiate returns a fresh clone of the template registered under name.
// The clone is renamed to as, or keeps the template's node name when as is
// empty.
func (c *Catalog[T]) Instantiate(name, as string) (flowtree.Flow[T], error) {
	c.mu.RLock()
	tmpl, ok := c.templates[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return tmpl.Clone(as), nil
}

// MustInstantiate is like Instantiate but panics if name is not registered.
func (c *Catalog[T]) MustInstantiate(name, as string) flowtree.Flow[T] {
	f, err := c.Instantiate(name, as)
	if err != nil {
		panic("catalog: " + err.Error())
	}
	return f
}

// Has returns true if a template is registered under name.
func (c *Catalog[T]) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.templates[name]
	return ok
}

// Delete removes the template registered under name.
func (c *Catalog[T]) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.templates, name)
}

// Names returns the registered names in sorted order.
func (c *Catalog[T]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered templates.
func (c *Catalog[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}
