package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowtree/pkg/flowtree"
)

type state = *flowtree.Context

func setKey(t *testing.T, name, key string) *flowtree.Step[state] {
	t.Helper()
	step, err := flowtree.NewStep(flowtree.StepConfig[state]{
		Name: name,
		Func: flowtree.SimpleStep(func(_ context.Context, c state) error {
			c.Set(key, flowtree.ValueOr(c, key, 0)+1)
			return nil
		}),
	})
	require.NoError(t, err)
	return step
}

func notifyTemplate(t *testing.T) flowtree.Flow[state] {
	t.Helper()
	seq, err := flowtree.NewSequential(flowtree.SequentialConfig[state]{
		Name:  "notify",
		Steps: []flowtree.Flow[state]{setKey(t, "render", "rendered"), setKey(t, "send", "sent")},
	})
	require.NoError(t, err)
	return seq
}

func TestNew(t *testing.T) {
	c := New[state]()
	assert.NotNil(t, c)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Names())
}

func TestRegisterAndInstantiate(t *testing.T) {
	c := New[state]()
	tmpl := notifyTemplate(t)
	require.NoError(t, c.Register("notify", tmpl))

	assert.True(t, c.Has("notify"))
	assert.Equal(t, 1, c.Len())

	a, err := c.Instantiate("notify", "notify-welcome")
	require.NoError(t, err)
	b, err := c.Instantiate("notify", "")
	require.NoError(t, err)

	assert.Equal(t, "notify-welcome", a.Name())
	assert.Equal(t, "notify", b.Name())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEqual(t, tmpl.ID(), a.ID())

	// Children are fresh copies too.
	require.Len(t, a.Children(), 2)
	assert.NotEqual(t, a.Children()[0].ID(), b.Children()[0].ID())
	assert.Equal(t, "render", a.Children()[0].Name())
}

func TestInstances_AttachTogether(t *testing.T) {
	c := New[state]()
	require.NoError(t, c.Register("notify", notifyTemplate(t)))

	root, err := flowtree.NewSequential(flowtree.SequentialConfig[state]{
		Name: "onboarding",
		Steps: []flowtree.Flow[state]{
			c.MustInstantiate("notify", "welcome"),
			c.MustInstantiate("notify", "reminder"),
		},
	})
	require.NoError(t, err)

	report, err := flowtree.Run(context.Background(), root, flowtree.NewContext())
	require.NoError(t, err)
	assert.Equal(t, flowtree.StatusSuccess, report.Status())
	assert.Equal(t, 2, flowtree.ValueOr(report.Context(), "sent", 0))
	assert.Len(t, report.Root().Find("send"), 2)
}

func TestRegister_Errors(t *testing.T) {
	c := New[state]()

	assert.Error(t, c.Register("", notifyTemplate(t)))
	assert.Error(t, c.Register("nil", nil))

	require.NoError(t, c.Register("notify", notifyTemplate(t)))
	err := c.Register("notify", notifyTemplate(t))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestReplace(t *testing.T) {
	c := New[state]()
	require.NoError(t, c.Register("step", setKey(t, "old", "k")))
	require.NoError(t, c.Replace("step", setKey(t, "new", "k")))

	f, err := c.Instantiate("step", "")
	require.NoError(t, err)
	assert.Equal(t, "new", f.Name())
}

func TestInstantiate_NotFound(t *testing.T) {
	c := New[state]()
	_, err := c.Instantiate("missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Panics(t, func() {
		c.MustInstantiate("missing", "x")
	})
}

func TestDeleteAndNames(t *testing.T) {
	c := New[state]()
	require.NoError(t, c.Register("b", setKey(t, "b", "k")))
	require.NoError(t, c.Register("a", setKey(t, "a", "k")))
	require.NoError(t, c.Register("c", setKey(t, "c", "k")))

	assert.Equal(t, []string{"a", "b", "c"}, c.Names())

	c.Delete("b")
	assert.False(t, c.Has("b"))
	assert.Equal(t, []string{"a", "c"}, c.Names())

	// Deleting a missing name is a no-op.
	c.Delete("missing")
	assert.Equal(t, 2, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	c := New[state]()
	require.NoError(t, c.Register("notify", notifyTemplate(t)))

	const goroutines = 50
	ids := make([]string, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			f, err := c.Instantiate("notify", "")
			if err == nil {
				ids[i] = f.ID()
			}
			_ = c.Names()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
