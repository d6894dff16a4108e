package flowtree

import "github.com/randalmurphal/flowtree/pkg/flowtree/fault"

// Metadata is the envelope a node receives from its parent.
//
// It carries the errors and warnings accumulated before the node ran and an
// optional value chosen by the parent, such as the key a Switch matched.
// Metadata is immutable; the With methods return modified copies.
type Metadata struct {
	errors   []*fault.FlowError
	warnings []*fault.FlowError
	data     any
	hasData  bool
}

// NewMetadata returns empty metadata.
func NewMetadata() Metadata {
	return Metadata{}
}

// Errors returns the accumulated errors.
func (m Metadata) Errors() []*fault.FlowError {
	return cloneErrors(m.errors)
}

// Warnings returns the accumulated warnings.
func (m Metadata) Warnings() []*fault.FlowError {
	return cloneErrors(m.warnings)
}

// Data returns the value passed by the parent, if any.
func (m Metadata) Data() (any, bool) {
	return m.data, m.hasData
}

// WithData returns a copy of m carrying v as its data.
func (m Metadata) WithData(v any) Metadata {
	m.data = v
	m.hasData = true
	return m
}

// WithIssues returns a copy of m with errs and warns appended to the
// accumulated lists.
func (m Metadata) WithIssues(errs, warns []*fault.FlowError) Metadata {
	if len(errs) > 0 {
		m.errors = concatErrors(m.errors, errs)
	}
	if len(warns) > 0 {
		m.warnings = concatErrors(m.warnings, warns)
	}
	return m
}

// MetadataValue returns the metadata data as an M.
func MetadataValue[M any](m Metadata) (M, bool) {
	if !m.hasData {
		var zero M
		return zero, false
	}
	v, ok := m.data.(M)
	return v, ok
}

func cloneErrors(errs []*fault.FlowError) []*fault.FlowError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]*fault.FlowError, len(errs))
	copy(out, errs)
	return out
}

// concatErrors joins lists into a freshly allocated slice, skipping nils.
func concatErrors(lists ...[]*fault.FlowError) []*fault.FlowError {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	if n == 0 {
		return nil
	}
	out := make([]*fault.FlowError, 0, n)
	for _, l := range lists {
		for _, e := range l {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
