package flowtree

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// Test state types and node helpers shared across tests.

// order is a typed state embedding a Context.
type order struct {
	*Context
	Total int
}

func (o *order) Clone() *order {
	return &order{Context: o.Context.Clone(), Total: o.Total}
}

func newOrder(total int) *order {
	return &order{Context: NewContext(), Total: total}
}

// tracker records the order in which steps executed. Safe for parallel
// branches.
type tracker struct {
	mu    sync.Mutex
	names []string
}

func (tr *tracker) add(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.names = append(tr.names, name)
}

func (tr *tracker) ran() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string{}, tr.names...)
}

func (tr *tracker) count(name string) int {
	n := 0
	for _, got := range tr.ran() {
		if got == name {
			n++
		}
	}
	return n
}

// mustStep builds a step or fails the test.
func mustStep(t *testing.T, name string, fn StepFunc[*Context]) *Step[*Context] {
	t.Helper()
	s, err := NewStep(StepConfig[*Context]{Name: name, Func: fn})
	require.NoError(t, err)
	return s
}

// setStep writes key=value.
func setStep(t *testing.T, tr *tracker, name, key string, value any) *Step[*Context] {
	t.Helper()
	return mustStep(t, name, func(_ context.Context, c *Context, _ Metadata) (Report[*Context], error) {
		if tr != nil {
			tr.add(name)
		}
		c.Set(key, value)
		return Success(c), nil
	})
}

// okStep succeeds without touching the context.
func okStep(t *testing.T, tr *tracker, name string) *Step[*Context] {
	t.Helper()
	return mustStep(t, name, func(_ context.Context, c *Context, _ Metadata) (Report[*Context], error) {
		if tr != nil {
			tr.add(name)
		}
		return Success(c), nil
	})
}

// warnStep succeeds with one technical warning.
func warnStep(t *testing.T, tr *tracker, name, msg string) *Step[*Context] {
	t.Helper()
	return mustStep(t, name, func(_ context.Context, c *Context, _ Metadata) (Report[*Context], error) {
		if tr != nil {
			tr.add(name)
		}
		return SuccessWithWarning(c, fault.Technicalf("%s", msg)), nil
	})
}

// failStep reports err as a failure.
func failStep(t *testing.T, tr *tracker, name string, err *fault.FlowError) *Step[*Context] {
	t.Helper()
	return mustStep(t, name, func(_ context.Context, c *Context, _ Metadata) (Report[*Context], error) {
		if tr != nil {
			tr.add(name)
		}
		return Failure(c, err), nil
	})
}

// noop builds a NoOp or fails the test.
func noop(t *testing.T, name string) *NoOp[*Context] {
	t.Helper()
	n, err := NewNoOp[*Context](name)
	require.NoError(t, err)
	return n
}

// seq builds a Sequential without a finally child.
func seq(t *testing.T, name string, steps ...Flow[*Context]) *Sequential[*Context] {
	t.Helper()
	s, err := NewSequential(SequentialConfig[*Context]{Name: name, Steps: steps})
	require.NoError(t, err)
	return s
}

// executeFlow runs f outside of Run with empty metadata.
func executeFlow(f Flow[*Context], c *Context) Report[*Context] {
	return f.Execute(context.Background(), c, NewMetadata())
}

// errorMessages returns the messages of errs.
func errorMessages(errs []*fault.FlowError) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Message
	}
	return out
}

// newCaptureLogger returns a debug-level JSON logger and a function that
// decodes everything it logged so far.
func newCaptureLogger() (*slog.Logger, func(t *testing.T) []map[string]any) {
	var mu sync.Mutex
	buf := &bytes.Buffer{}
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	read := func(t *testing.T) []map[string]any {
		t.Helper()
		mu.Lock()
		defer mu.Unlock()
		var records []map[string]any
		sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
		for sc.Scan() {
			var rec map[string]any
			require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
			records = append(records, rec)
		}
		return records
	}
	return logger, read
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// findRecords returns the log records with the given message.
func findRecords(records []map[string]any, msg string) []map[string]any {
	var out []map[string]any
	for _, r := range records {
		if r["msg"] == msg {
			out = append(out, r)
		}
	}
	return out
}
