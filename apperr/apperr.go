// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
)

// Kind is the error category a caller reacts to.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindState
	KindTransient
	KindIdentity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindTransient:
		return "transient"
	case KindIdentity:
		return "identity"
	default:
		return "internal"
	}
}

// Error is a structured application error. Two errors match under errors.Is
// when their codes are equal, so wrapped sentinels keep their identity.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Err:     cause,
	}
}

// WithMessage returns a copy of sentinel with a more specific message.
func WithMessage(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain, or "internal".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// MessageOf returns a message safe to show to callers.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Retryable reports whether err is safe to retry.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation
var (
	ErrOutOfRange      = newError(KindValidation, "out_of_range", "score must be between 1 and 10")
	ErrMissingField    = newError(KindValidation, "missing_field", "required field is missing")
	ErrInvalidInput    = newError(KindValidation, "invalid_input", "invalid input")
	ErrInvalidDuration = newError(KindValidation, "invalid_duration", "duration must be between 1 second and 24 hours")
)

// Conflict
var (
	ErrDuplicate         = newError(KindConflict, "duplicate", "already voted")
	ErrAnotherVoteActive = newError(KindConflict, "another_vote_active", "another vote in this event is active")
	ErrJudgeCount        = newError(KindConflict, "judge_count", "exactly 3 distinct judges must be assigned")
	ErrAlreadyClaimed    = newError(KindConflict, "already_claimed", "invitation already claimed")
)

// Not found
var (
	ErrEventNotFound = newError(KindNotFound, "event_not_found", "event not found")
	ErrVoteNotFound  = newError(KindNotFound, "vote_not_found", "vote not found")
	ErrJudgeNotFound = newError(KindNotFound, "judge_not_found", "judge not found")
)

// State
var (
	ErrVoteNotActive     = newError(KindState, "vote_not_active", "vote is not open")
	ErrInvalidTransition = newError(KindState, "invalid_transition", "vote cannot make this transition")
	ErrResultUnavailable = newError(KindState, "result_unavailable", "results are not yet available")
)

// Transient
var (
	ErrStoreUnavailable = newError(KindTransient, "store_unavailable", "storage temporarily unavailable")
)

// Identity
var (
	ErrIdentityUnresolved = newError(KindIdentity, "identity_unresolved", "no voter identity; mint one and retry")
	ErrUnauthorized       = newError(KindIdentity, "unauthorized", "admin session required")
)
