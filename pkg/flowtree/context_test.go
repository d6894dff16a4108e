package flowtree

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_SetGetDelete(t *testing.T) {
	c := NewContext()
	c.Set("b", 2)
	c.Set("a", 1)
	c.Set("b", 20)

	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 20, v)
	assert.True(t, c.Has("a"))
	assert.Equal(t, 2, c.Len())

	// Replacing a value keeps its position.
	if diff := cmp.Diff([]string{"b", "a"}, c.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	c.Delete("b")
	assert.False(t, c.Has("b"))
	assert.Equal(t, []string{"a"}, c.Keys())

	// Deleting a missing key is a no-op.
	c.Delete("missing")
	assert.Equal(t, 1, c.Len())
}

func TestNewContextFrom_SortsKeys(t *testing.T) {
	c := NewContextFrom(map[string]any{"zeta": 1, "alpha": 2, "mid": 3})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, c.Keys())
	assert.Empty(t, c.Changes())
}

func TestNewContextOf_KeepsOrder(t *testing.T) {
	c := NewContextOf(P("z", 1), P("a", "x"))
	want := []Pair{{Key: "z", Value: 1}, {Key: "a", Value: "x"}}
	if diff := cmp.Diff(want, c.Pairs()); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "{z=1, a=x}", c.String())
	assert.Empty(t, c.Changes())
}

func TestContext_Range(t *testing.T) {
	c := NewContextOf(P("a", 1), P("b", 2), P("c", 3))

	var seen []string
	c.Range(func(key string, _ any) bool {
		seen = append(seen, key)
		// Mutating during Range is allowed.
		c.Set("extra-"+key, true)
		return key != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.True(t, c.Has("extra-a"))
}

func TestContext_Snapshot(t *testing.T) {
	c := NewContextOf(P("a", 1))
	snap := c.Snapshot()
	snap["a"] = 99
	snap["b"] = 2

	assert.Equal(t, 1, ValueOr(c, "a", 0))
	assert.False(t, c.Has("b"))
}

func TestContext_CloneIsIndependent(t *testing.T) {
	c := NewContextOf(P("a", 1))
	cp := c.Clone()
	cp.Set("a", 2)
	cp.Set("b", 3)
	c.Delete("a")

	assert.False(t, c.Has("a"))
	assert.Equal(t, 2, ValueOr(cp, "a", 0))
	assert.Equal(t, []string{"a", "b"}, cp.Keys())
}

func TestContext_ZeroValue(t *testing.T) {
	var c Context
	assert.False(t, c.Has("a"))
	assert.Empty(t, c.Snapshot())

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, []string{"b"}, c.Keys())
	assert.Equal(t, []string{"a", "b"}, c.Changes())

	// Embedding by value works the same way.
	doc := struct {
		Context
		Title string
	}{Title: "x"}
	doc.Set("k", "v")
	assert.Equal(t, "v", ValueOr(&doc.Context, "k", ""))
	assert.Equal(t, 1, doc.Clone().Len())
}

func TestContext_JournalAndApply(t *testing.T) {
	base := NewContextOf(P("keep", 1), P("drop", 2))

	branch := base.Clone()
	branch.resetJournal()
	branch.Set("new", "n")
	branch.Set("keep", 10)
	branch.Delete("drop")
	branch.Set("new", "n2")

	assert.Equal(t, []string{"new", "keep", "drop"}, branch.Changes())

	base.apply(branch)
	assert.Equal(t, 10, ValueOr(base, "keep", 0))
	assert.Equal(t, "n2", ValueOr(base, "new", ""))
	assert.False(t, base.Has("drop"))

	// Applying onto itself or from nil changes nothing.
	base.apply(base)
	base.apply(nil)
	assert.Equal(t, 2, base.Len())
}

func TestValue(t *testing.T) {
	c := NewContextOf(P("n", 5), P("s", "x"))

	n, ok := Value[int](c, "n")
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = Value[int](c, "s")
	assert.False(t, ok, "wrong type")

	_, ok = Value[int](c, "missing")
	assert.False(t, ok)

	_, ok = Value[int](nil, "n")
	assert.False(t, ok)

	assert.Equal(t, "fallback", ValueOr(c, "n", "fallback"))
}

func TestContext_ConcurrentAccess(t *testing.T) {
	c := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			c.Set(key, i)
			_ = c.Keys()
			_ = c.Snapshot()
			_, _ = c.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, c.Len())
}

func TestTypedState(t *testing.T) {
	o := newOrder(100)
	o.Set("customer", "ada")

	cp := o.Clone()
	cp.Total = 5
	cp.Set("customer", "bob")

	assert.Equal(t, 100, o.Total)
	assert.Equal(t, "ada", ValueOr(o.Data(), "customer", ""))
	assert.Equal(t, "bob", ValueOr(cp.Data(), "customer", ""))
}
