package qerr

import (
	"errors"
	"fmt"
)

// Error kinds, stable strings consumed by the HTTP error middleware.
const (
	KindAmbiguousScope       = "ambiguous_scope"
	KindNoMatch              = "no_match"
	KindUnsupportedOperation = "unsupported_operation"
	KindBackendUnavailable   = "backend_unavailable"
	KindInternalConsistency  = "internal_consistency"
)

// AmbiguousScopeError means several disjoint entity sets matched the prompt
// with comparable confidence and no prior scope disambiguates between them.
// Recoverable: the caller should re-prompt with more detail.
type AmbiguousScopeError struct {
	Prompt     string
	Candidates []string
}

func (e *AmbiguousScopeError) Error() string {
	return fmt.Sprintf("prompt %q matches multiple unrelated schema areas %v; please be more specific", e.Prompt, e.Candidates)
}

func (e *AmbiguousScopeError) Kind() string { return KindAmbiguousScope }

// NoMatchError means nothing in the catalog scored above the minimum
// threshold for any prompt term.
type NoMatchError struct {
	Prompt string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no schema entity matches prompt %q; try naming a table, metric or measure", e.Prompt)
}

func (e *NoMatchError) Kind() string { return KindNoMatch }

// UnsupportedOperationError means the prompt implies an operation kind the
// synthesizer does not produce (mutations, DDL, unknown verbs).
type UnsupportedOperationError struct {
	Prompt    string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %q implied by prompt %q is not supported; only read queries (aggregate, filter, trace, join) are available", e.Operation, e.Prompt)
}

func (e *UnsupportedOperationError) Kind() string { return KindUnsupportedOperation }

// BackendUnavailableError wraps transient infrastructure failures from the
// live backend (timeout, auth, connectivity). Retried once by the gateway,
// then surfaced.
type BackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

func (e *BackendUnavailableError) Kind() string { return KindBackendUnavailable }

// InternalConsistencyError is fatal: a synthesized query the demo backend
// cannot execute means the synthesis/backend operation-parity contract broke.
// Never swallowed, never degraded.
type InternalConsistencyError struct {
	Detail string
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency violation: %s", e.Detail)
}

func (e *InternalConsistencyError) Kind() string { return KindInternalConsistency }

// Kinder is implemented by every error in this package.
type Kinder interface {
	error
	Kind() string
}

// KindOf extracts the taxonomy kind from err, or "" for untyped errors.
func KindOf(err error) string {
	var k Kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// IsBackendUnavailable reports whether err is (or wraps) a transient backend
// failure eligible for retry.
func IsBackendUnavailable(err error) bool {
	var e *BackendUnavailableError
	return errors.As(err, &e)
}

// IsClientError reports whether err belongs to the recoverable client-input
// class (re-prompting can fix it).
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindAmbiguousScope, KindNoMatch, KindUnsupportedOperation:
		return true
	}
	return false
}
