// Package fault classifies the failures that flow nodes report.
//
// Every failure carried by a report is a *FlowError with a Kind:
//   - Technical: infrastructure or transient trouble, the natural target of a retry
//   - Functional: a business rule was violated, the natural target of a recovery branch
//   - Builder: a tree was assembled incorrectly; raised before any run starts
//   - Unclassified: a plain Go error or a panic surfaced from user code
//
// A RecoverableFilter decides which kinds a Recoverable or Retryable node acts on.
package fault

import "fmt"

// Kind says how a failure should be handled.
type Kind int

const (
	// KindUnclassified marks failures that carried no classification, such as
	// plain errors returned by a step or recovered panics.
	KindUnclassified Kind = iota

	// KindTechnical indicates retry will likely help.
	// Examples: timeouts, connection resets, rate limits.
	KindTechnical

	// KindFunctional indicates a business rule failed.
	// Examples: insufficient funds, invalid order state.
	KindFunctional

	// KindBuilder indicates a flow tree was misconfigured at construction time.
	KindBuilder
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnclassified:
		return "UNCLASSIFIED"
	case KindTechnical:
		return "TECHNICAL"
	case KindFunctional:
		return "FUNCTIONAL"
	case KindBuilder:
		return "BUILDER"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "UNCLASSIFIED":
		return KindUnclassified, nil
	case "TECHNICAL":
		return KindTechnical, nil
	case "FUNCTIONAL":
		return KindFunctional, nil
	case "BUILDER":
		return KindBuilder, nil
	default:
		return KindUnclassified, fmt.Errorf("unknown fault kind %q", s)
	}
}
