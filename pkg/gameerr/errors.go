// Package gameerr defines the error kinds shared by the game engine.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide how to report it.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindNotFound        Kind = "not_found"
	KindExternalService Kind = "external_service_error"
	KindPersistence     Kind = "persistence_error"
)

// Kind sentinels, for use with errors.Is.
var (
	ErrValidation      = &Error{Kind: KindValidation, Msg: "validation error"}
	ErrNotFound        = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrExternalService = &Error{Kind: KindExternalService, Msg: "external service error"}
	ErrPersistence     = &Error{Kind: KindPersistence, Msg: "persistence error"}
)

// Error is a classified game error. Msg is safe to show to a player.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// New returns a sentinel error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches an operation and an underlying cause to a kind.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against another *Error. A kind sentinel (no Op, no
// Err) matches every error of its kind; otherwise identity is required.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Err == nil && isKindSentinel(t) {
		return e.Kind == t.Kind
	}
	return e == t
}

func isKindSentinel(e *Error) bool {
	switch e {
	case ErrValidation, ErrNotFound, ErrExternalService, ErrPersistence:
		return true
	}
	return false
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// Message returns a player-facing message for err.
func Message(err error) string {
	var ge *Error
	if errors.As(err, &ge) && ge.Msg != "" {
		return ge.Msg
	}
	return err.Error()
}
