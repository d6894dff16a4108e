package fault

import "fmt"

// RecoverableFilter selects the failures a Recoverable or Retryable node
// may act on. The zero value is not a valid filter.
type RecoverableFilter int

const (
	_ RecoverableFilter = iota

	// RecoverAll matches every runtime failure, unclassified ones included.
	RecoverAll

	// RecoverTechnical matches technical failures only.
	RecoverTechnical

	// RecoverFunctional matches functional failures only.
	RecoverFunctional

	// RecoverNone matches nothing.
	RecoverNone
)

// String returns the filter name.
func (f RecoverableFilter) String() string {
	switch f {
	case RecoverAll:
		return "ALL"
	case RecoverTechnical:
		return "TECHNICAL"
	case RecoverFunctional:
		return "FUNCTIONAL"
	case RecoverNone:
		return "NONE"
	default:
		return fmt.Sprintf("RecoverableFilter(%d)", int(f))
	}
}

// Valid reports whether f is one of the declared filters.
func (f RecoverableFilter) Valid() bool {
	return f >= RecoverAll && f <= RecoverNone
}

// Matches reports whether err is eligible under f.
// Builder failures never match.
func (f RecoverableFilter) Matches(err *FlowError) bool {
	if err == nil || err.Kind == KindBuilder {
		return false
	}
	switch f {
	case RecoverAll:
		return true
	case RecoverTechnical:
		return err.Kind == KindTechnical
	case RecoverFunctional:
		return err.Kind == KindFunctional
	default:
		return false
	}
}

// AnyMatches reports whether at least one of errs matches f.
func AnyMatches(errs []*FlowError, f RecoverableFilter) bool {
	for _, err := range errs {
		if f.Matches(err) {
			return true
		}
	}
	return false
}

// ParseFilter is the inverse of RecoverableFilter.String.
func ParseFilter(s string) (RecoverableFilter, error) {
	switch s {
	case "ALL":
		return RecoverAll, nil
	case "TECHNICAL":
		return RecoverTechnical, nil
	case "FUNCTIONAL":
		return RecoverFunctional, nil
	case "NONE":
		return RecoverNone, nil
	default:
		return 0, fmt.Errorf("unknown recoverable filter %q", s)
	}
}
