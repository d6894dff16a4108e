package flowtree

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// State is the constraint on a run's context type.
//
// Data exposes the key/value map every context carries. Clone returns an
// independent copy; it is used to isolate parallel branches, retry attempts
// and try branches. A Clone that shares the underlying *Context breaks that
// isolation, so implementations must call Context.Clone.
type State[T any] interface {
	Data() *Context
	Clone() T
}

// Pair is one key/value entry of a Context.
type Pair struct {
	Key   string
	Value any
}

// P is shorthand for Pair{Key: key, Value: value}.
func P(key string, value any) Pair {
	return Pair{Key: key, Value: value}
}

// Context is an ordered, concurrency-safe map threaded through a run.
//
// Keys keep their first insertion position; setting an existing key
// replaces its value in place. The zero value is an empty context ready to
// use, but a Context must not be copied after first use.
type Context struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]any

	// journal lists the keys written or deleted since the last fork, in
	// first-touch order.
	journal []string
	touched map[string]struct{}
}

var _ State[*Context] = (*Context)(nil)

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{
		values:  make(map[string]any),
		touched: make(map[string]struct{}),
	}
}

// NewContextFrom creates a context holding the entries of m.
// Go maps are unordered, so keys are inserted in sorted order.
func NewContextFrom(m map[string]any) *Context {
	c := NewContext()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.set(k, m[k])
	}
	c.resetJournal()
	return c
}

// NewContextOf creates a context from ordered pairs.
func NewContextOf(pairs ...Pair) *Context {
	c := NewContext()
	for _, p := range pairs {
		c.set(p.Key, p.Value)
	}
	c.resetJournal()
	return c
}

// Data returns c itself.
func (c *Context) Data() *Context {
	return c
}

// Set stores value under key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

func (c *Context) set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
	c.touch(key)
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delete(key)
}

func (c *Context) delete(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i:i], c.keys[i+1:]...)
			break
		}
	}
	c.touch(key)
}

func (c *Context) touch(key string) {
	if c.touched == nil {
		c.touched = make(map[string]struct{})
	}
	if _, ok := c.touched[key]; ok {
		return
	}
	c.touched[key] = struct{}{}
	c.journal = append(c.journal, key)
}

// Keys returns the keys in insertion order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of entries.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
// fn runs on a snapshot, so it may modify c.
func (c *Context) Range(fn func(key string, value any) bool) {
	for _, p := range c.Pairs() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// Pairs returns the entries in insertion order.
func (c *Context) Pairs() []Pair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Pair, len(c.keys))
	for i, k := range c.keys {
		out[i] = Pair{Key: k, Value: c.values[k]}
	}
	return out
}

// Snapshot returns a plain map copy of the entries. Values are not copied.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of c, including its write journal.
// Values are copied shallowly.
func (c *Context) Clone() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := &Context{
		keys:    make([]string, len(c.keys)),
		values:  make(map[string]any, len(c.values)),
		journal: make([]string, len(c.journal)),
		touched: make(map[string]struct{}, len(c.touched)),
	}
	copy(cp.keys, c.keys)
	copy(cp.journal, c.journal)
	for k, v := range c.values {
		cp.values[k] = v
	}
	for k := range c.touched {
		cp.touched[k] = struct{}{}
	}
	return cp
}

// Changes returns the keys written or deleted since c was forked for a
// parallel branch, in first-touch order. Custom merge functions can use it
// to find what a branch did.
func (c *Context) Changes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.journal))
	copy(out, c.journal)
	return out
}

func (c *Context) resetJournal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.journal = nil
	c.touched = make(map[string]struct{})
}

// apply replays the journal of from onto c: written keys take from's value,
// deleted keys are removed.
func (c *Context) apply(from *Context) {
	if from == nil || from == c {
		return
	}
	from.mu.RLock()
	writes := make([]Pair, 0, len(from.journal))
	deleted := make(map[string]bool)
	for _, k := range from.journal {
		if v, ok := from.values[k]; ok {
			writes = append(writes, Pair{Key: k, Value: v})
		} else {
			deleted[k] = true
			writes = append(writes, Pair{Key: k})
		}
	}
	from.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range writes {
		if deleted[w.Key] {
			c.delete(w.Key)
			continue
		}
		c.set(w.Key, w.Value)
	}
}

// String renders the entries in insertion order.
func (c *Context) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range c.Pairs() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", p.Key, p.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Value returns the value under key as a V. The second result is false when
// the key is missing or holds a value of another type.
func Value[V any](c *Context, key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	return v, ok
}

// ValueOr returns the value under key as a V, or fallback.
func ValueOr[V any](c *Context, key string, fallback V) V {
	if v, ok := Value[V](c, key); ok {
		return v
	}
	return fallback
}
