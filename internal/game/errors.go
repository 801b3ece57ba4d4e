/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "errors"

// Kind classifies an Error for the transport layer.
type Kind int

const (
	// KindValidation covers malformed codes, names and request bodies.
	KindValidation Kind = iota + 1
	// KindAuth covers unknown player tokens.
	KindAuth
	// KindNotFound covers unknown, expired or unverifiable sessions.
	KindNotFound
	// KindState covers operations the current status does not allow.
	KindState
	// KindForbidden covers non-admin callers of admin operations.
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Error is a client-visible failure with a short message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors of the same kind and message, so wrapped sentinels
// compare equal with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation returns a KindValidation error.
func Validation(msg string) *Error { return newError(KindValidation, msg) }

// State returns a KindState error.
func State(msg string) *Error { return newError(KindState, msg) }

// NotFound returns a KindNotFound error.
func NotFound(msg string) *Error { return newError(KindNotFound, msg) }

var (
	ErrInvalidCode         = Validation("Invalid sessionId (use 4-10 letters/numbers)")
	ErrNameRequired        = Validation("Name required")
	ErrMissingToken        = Validation("Missing playerToken")
	ErrMissingTarget       = Validation("Missing targetPlayerId")
	ErrUnknownToken        = newError(KindAuth, "Unknown player token")
	ErrForbidden           = newError(KindForbidden, "Only the admin can do this")
	ErrSessionNotFound     = NotFound("Session not found")
	ErrTargetNotFound      = NotFound("Target player not found")
	ErrAlreadyStarted      = State("Game already started")
	ErrJoinAfterStart      = State("Game already started, ask the admin to reset")
	ErrGameEnded           = State("Game has ended")
	ErrInsufficientPlayers = State("Need at least 2 players")
	ErrNotVoting           = State("Voting is not open")
	ErrWrongMode           = State("Operation not available in this game mode")
	ErrNotInRound          = State("No round in progress")
)

// KindOf reports the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
