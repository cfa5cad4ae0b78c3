// Package ftserr defines the three error kinds the core ever produces:
// a store failure, an internal invariant violation, and the (non-error)
// empty-query result.
package ftserr

import "errors"

// ErrEmptyQuery is never returned as an error. Tokenization producing no
// searchable tokens is a normal outcome; callers get it via an empty
// result slice, not this sentinel. It is kept here so callers have a
// single place to name the condition in comments and tests.
var ErrEmptyQuery = errors.New("empty query")

// ErrInvariantViolation marks an internal assertion failure, such as
// mismatched document groups between the match and highlight streams in
// the RawDocument builder. It is fatal to
// the query that triggered it.
var ErrInvariantViolation = errors.New("invariant violation")

// StoreError wraps any error returned by a Store. The core never
// inspects the underlying reason; it only propagates it.
type StoreError struct {
	Component string
	Reason    error
}

func (e *StoreError) Error() string {
	if e.Component == "" {
		return "store failure: " + e.Reason.Error()
	}
	return "store failure in " + e.Component + ": " + e.Reason.Error()
}

func (e *StoreError) Unwrap() error { return e.Reason }

// Invariant wraps ErrInvariantViolation with the component that detected
// it, so a diagnostic can identify where the assertion failed.
type Invariant struct {
	Component string
	Detail    string
}

func (e *Invariant) Error() string {
	return "invariant violation in " + e.Component + ": " + e.Detail
}

func (e *Invariant) Unwrap() error { return ErrInvariantViolation }
