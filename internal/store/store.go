/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store resolves the session reference a client sends with each
// request and persists the session after it has been mutated.
//
// Two implementations exist. Memory keeps sessions in a process-wide table
// and evicts idle sessions and silent players; it does not share state
// across processes, so every request for a code must reach the same
// instance. Signed keeps nothing on the server: the client carries the
// whole session in a signed token and receives a new one after every call.
// Two clients mutating from the same token diverge and the last one to
// come back wins.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Seednode/impostor/internal/game"
)

// Kind names a Store implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindSigned Kind = "signed"
)

// ParseKind validates a configured store name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMemory, KindSigned:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown store %q (want %q or %q)", s, KindMemory, KindSigned)
}

// Ref is what a client presents to name its session: a code for the
// memory store, or a signed blob (plus the code it expects) for the
// signed store.
type Ref struct {
	Code string
	Blob string
}

// Store is implemented by Memory and Signed.
type Store interface {
	// Update resolves ref, creating an empty lobby when the session is
	// unknown and create is set, and passes fn a copy nobody else can
	// observe. The copy is persisted only when fn returns nil. The
	// returned Ref is what the client must present next time.
	Update(ctx context.Context, ref Ref, create bool, fn func(*game.Session) error) (Ref, error)
}

// Factory builds new sessions and supplies the clock; *game.Engine
// satisfies it.
type Factory interface {
	NewSession(code string) *game.Session
	Now() time.Time
}

// Logf receives diagnostic messages.
type Logf func(format string, args ...any)

func nopLogf(string, ...any) {}
