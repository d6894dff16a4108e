package flowtree

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// ExprPredicate compiles an expr-lang expression into a Predicate. The
// expression sees the context entries as variables:
//
//	pred, err := flowtree.ExprPredicate[*flowtree.Context](`amount > 100 && country == "FR"`)
//
// Compilation errors are BUILDER errors. Evaluation errors, including a
// non-boolean result, make the Conditional report ERROR.
func ExprPredicate[T State[T]](source string) (Predicate[T], error) {
	program, err := compileExpr(source, expr.AsBool())
	if err != nil {
		return nil, err
	}
	return func(c T) (bool, error) {
		out, err := runExpr(program, source, c)
		if err != nil {
			return false, err
		}
		b, ok := out.(bool)
		if !ok {
			return false, fmt.Errorf("expression %q returned %T, want bool", source, out)
		}
		return b, nil
	}, nil
}

// ExprKey compiles an expr-lang expression into a KeyFunc. The result must
// have type K exactly; expr-lang produces int for integer literals and
// float64 for decimals.
func ExprKey[T State[T], K comparable](source string) (KeyFunc[T, K], error) {
	program, err := compileExpr(source)
	if err != nil {
		return nil, err
	}
	return func(c T) (K, error) {
		var zero K
		out, err := runExpr(program, source, c)
		if err != nil {
			return zero, err
		}
		k, ok := out.(K)
		if !ok {
			return zero, fmt.Errorf("expression %q returned %T, want %T", source, out, zero)
		}
		return k, nil
	}, nil
}

func compileExpr(source string, opts ...expr.Option) (*vm.Program, error) {
	if source == "" {
		return nil, fault.Builderf("expression is empty")
	}
	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, &fault.FlowError{
			Kind:    fault.KindBuilder,
			Message: fmt.Sprintf("compile expression %q", source),
			Cause:   err,
		}
	}
	return program, nil
}

func runExpr[T State[T]](program *vm.Program, source string, c T) (any, error) {
	out, err := expr.Run(program, c.Data().Snapshot())
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", source, err)
	}
	return out, nil
}
