// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import "errors"

// Kind classifies an error so the transport layer can map it to a status code.
type Kind int

const (
	// KindInternal is the default for unclassified errors.
	KindInternal Kind = iota
	// KindInvalid marks malformed or out-of-range input.
	KindInvalid
	// KindNotFound marks a missing barcode, date or record.
	KindNotFound
	// KindConflict marks a duplicate mark or double bulk-absent.
	KindConflict
	// KindAlreadyInState marks a no-op transition request.
	KindAlreadyInState
	// KindUnauthorized marks failed credential checks.
	KindUnauthorized
)

// Error carries a kind and an operator-facing message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Invalid returns a validation error.
func Invalid(msg string) error { return &Error{Kind: KindInvalid, Msg: msg} }

// NotFound returns a not-found error.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Conflict returns a conflict error.
func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// AlreadyInState returns an error for a transition into the current state.
func AlreadyInState(msg string) error { return &Error{Kind: KindAlreadyInState, Msg: msg} }

// Unauthorized returns a failed-credentials error.
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// KindOf extracts the kind from err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
