package fault

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

type testNode struct{ name, id string }

func (n testNode) Name() string { return n.name }
func (n testNode) ID() string   { return n.id }

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindUnclassified, "UNCLASSIFIED"},
		{KindTechnical, "TECHNICAL"},
		{KindFunctional, "FUNCTIONAL"},
		{KindBuilder, "BUILDER"},
		{Kind(99), "Kind(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind(%d).String() = %s, want %s", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestParseKind_RoundTrip(t *testing.T) {
	for _, k := range []Kind{KindUnclassified, KindTechnical, KindFunctional, KindBuilder} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v", k, got)
		}
	}
	if _, err := ParseKind("bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFilterMatches(t *testing.T) {
	technical := Technical("db down", nil)
	functional := Functional("insufficient funds", nil)
	unclassified := Classify(errors.New("boom"))
	builder := Builderf("missing name")

	tests := []struct {
		filter RecoverableFilter
		err    *FlowError
		want   bool
	}{
		{RecoverAll, technical, true},
		{RecoverAll, functional, true},
		{RecoverAll, unclassified, true},
		{RecoverAll, builder, false},
		{RecoverTechnical, technical, true},
		{RecoverTechnical, functional, false},
		{RecoverTechnical, unclassified, false},
		{RecoverFunctional, functional, true},
		{RecoverFunctional, technical, false},
		{RecoverNone, technical, false},
		{RecoverNone, functional, false},
		{RecoverableFilter(0), technical, false},
		{RecoverAll, nil, false},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s/%v", tt.filter, tt.err)
		t.Run(name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.err); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterValid(t *testing.T) {
	if RecoverableFilter(0).Valid() {
		t.Error("zero filter must be invalid")
	}
	for _, f := range []RecoverableFilter{RecoverAll, RecoverTechnical, RecoverFunctional, RecoverNone} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
		parsed, err := ParseFilter(f.String())
		if err != nil || parsed != f {
			t.Errorf("ParseFilter(%q) = %v, %v", f, parsed, err)
		}
	}
}

func TestAnyMatches(t *testing.T) {
	errs := []*FlowError{Functional("rule", nil), Technical("net", nil)}
	if !AnyMatches(errs, RecoverTechnical) {
		t.Error("expected a technical match")
	}
	if AnyMatches(errs[:1], RecoverTechnical) {
		t.Error("functional error must not match technical filter")
	}
	if AnyMatches(nil, RecoverAll) {
		t.Error("empty list cannot match")
	}
}

func TestClassify(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if Classify(nil) != nil {
			t.Error("Classify(nil) should be nil")
		}
	})

	t.Run("flow error returned as is", func(t *testing.T) {
		fe := Technical("timeout", nil)
		if got := Classify(fe); got != fe {
			t.Errorf("Classify() = %p, want %p", got, fe)
		}
	})

	t.Run("wrapped flow error keeps kind", func(t *testing.T) {
		fe := Functional("invalid order", nil)
		wrapped := fmt.Errorf("checkout: %w", fe)
		got := Classify(wrapped)
		if got.Kind != KindFunctional {
			t.Errorf("Kind = %s, want FUNCTIONAL", got.Kind)
		}
		if !errors.Is(got, wrapped) {
			t.Error("classified error should wrap the original")
		}
		if got.Error() != "FUNCTIONAL: checkout: FUNCTIONAL: invalid order" {
			t.Errorf("Error() = %q", got.Error())
		}
	})

	t.Run("plain error is unclassified", func(t *testing.T) {
		plain := errors.New("boom")
		got := Classify(plain)
		if got.Kind != KindUnclassified {
			t.Errorf("Kind = %s, want UNCLASSIFIED", got.Kind)
		}
		if !errors.Is(got, plain) {
			t.Error("expected cause to be preserved")
		}
	})

	t.Run("panic is unclassified", func(t *testing.T) {
		got := Classify(&PanicError{Value: "kaboom"})
		if got.Kind != KindUnclassified {
			t.Errorf("Kind = %s", got.Kind)
		}
		var pe *PanicError
		if !errors.As(got, &pe) {
			t.Fatal("expected PanicError in chain")
		}
		if pe.Value != "kaboom" {
			t.Errorf("Value = %v", pe.Value)
		}
	})
}

func TestFlowError_WithNode(t *testing.T) {
	fe := Technical("db down", errors.New("connection refused"))
	n := testNode{name: "charge", id: "id-1"}

	annotated := fe.WithNode(n)
	if annotated == fe {
		t.Fatal("WithNode must copy")
	}
	if fe.Node() != nil {
		t.Error("original must stay unattributed")
	}
	if annotated.Node().Name() != "charge" {
		t.Errorf("Node().Name() = %s", annotated.Node().Name())
	}
	if got := annotated.Error(); got != "node charge: TECHNICAL: db down: connection refused" {
		t.Errorf("Error() = %q", got)
	}

	other := testNode{name: "other", id: "id-2"}
	if again := annotated.WithNode(other); again != annotated {
		t.Error("attributed errors keep their first node")
	}

	b := Builderf("bad")
	if b.WithNode(n) != b {
		t.Error("builder errors never carry a node")
	}
}

func TestFlowError_IsBuilder(t *testing.T) {
	if !errors.Is(Builderf("missing %s", "name"), ErrBuilder) {
		t.Error("builder error should match ErrBuilder")
	}
	if errors.Is(Technical("x", nil), ErrBuilder) {
		t.Error("technical error must not match ErrBuilder")
	}
	wrapped := fmt.Errorf("sequential: %w", Builderf("empty"))
	if !errors.Is(wrapped, ErrBuilder) {
		t.Error("wrapped builder error should match ErrBuilder")
	}
}

func TestFlowError_JSON(t *testing.T) {
	fe := Functional("rejected", errors.New("limit exceeded")).WithNode(testNode{name: "approve", id: "n-7"})

	data, err := json.Marshal(fe)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded FlowError
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Kind != KindFunctional || decoded.Message != "rejected" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Cause == nil || decoded.Cause.Error() != "limit exceeded" {
		t.Errorf("Cause = %v", decoded.Cause)
	}
	if decoded.Node() == nil || decoded.Node().ID() != "n-7" {
		t.Errorf("Node = %v", decoded.Node())
	}
	if decoded.Error() != fe.Error() {
		t.Errorf("Error() = %q, want %q", decoded.Error(), fe.Error())
	}
}
