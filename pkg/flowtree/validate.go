package flowtree

import (
	"strings"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// checkName validates a node name.
func checkName(typ NodeType, name string) error {
	if name == "" {
		return fault.Builderf("%s: name is required", typ)
	}
	if strings.TrimSpace(name) != name {
		return fault.Builderf("%s %q: name has leading or trailing whitespace", typ, name)
	}
	return nil
}

// checkChild validates a required child. role names the child in errors,
// e.g. "try" or "steps[2]".
func checkChild[T State[T]](typ NodeType, name, role string, f Flow[T]) error {
	if isNil(f) {
		return fault.Builderf("%s %q: %s is required", typ, name, role)
	}
	return nil
}

// checkUnique rejects subtrees that contain the same node instance twice.
// Reusing a sub-flow requires Clone so that every attachment is reported
// separately.
func checkUnique[T State[T]](typ NodeType, name string, children ...Flow[T]) error {
	seen := make(map[string]string)
	for _, child := range children {
		if isNil(child) {
			continue
		}
		var dup string
		Walk(child, func(f Flow[T], _ int) {
			if dup != "" {
				return
			}
			if _, ok := seen[f.ID()]; ok {
				dup = f.Name()
				return
			}
			seen[f.ID()] = f.Name()
		})
		if dup != "" {
			return fault.Builderf("%s %q: node %q is attached more than once; use Clone to reuse it", typ, name, dup)
		}
	}
	return nil
}

func builderError(typ NodeType, name, format string, args ...any) error {
	return fault.Builderf("%s %q: "+format, append([]any{typ, name}, args...)...)
}
