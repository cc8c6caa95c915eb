package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable classification of an engine failure. Callers branch on
// kinds; the detail text is for humans only.
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
	KindInvalidActor       Kind = "invalid_actor"
	KindUnauthorized       Kind = "unauthorized"
	KindPreconditionFailed Kind = "precondition_failed"
	KindConflict           Kind = "conflict"
	KindAlreadyDone        Kind = "already_done"
	KindNoOp               Kind = "no_op"
	KindPaymentFailed      Kind = "payment_failed"
	KindVersionConflict    Kind = "version_conflict"
	KindInternal           Kind = "internal"
)

type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// E builds a classified error with a formatted detail message.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err, or KindInternal for errors that
// did not originate in the engine.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
