/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/Seednode/impostor/internal/game"
	"github.com/Seednode/impostor/internal/seal"
)

// Signed carries sessions in client-held tokens. Every token embeds the
// session version. With strict set, the store remembers the highest
// version it has issued per game and refuses older tokens, which turns
// last-writer-wins into first-writer-wins for this process. A game is a
// code plus its creation time, so a new lobby opened under a reused code
// starts its own count.
type Signed struct {
	codec   *seal.Codec
	factory Factory
	logf    Logf

	strict bool
	mu     sync.Mutex
	issued map[string]uint64
}

// NewSigned returns a stateless store backed by codec.
func NewSigned(codec *seal.Codec, factory Factory, strict bool, logf Logf) *Signed {
	if logf == nil {
		logf = nopLogf
	}
	return &Signed{
		codec:   codec,
		factory: factory,
		logf:    logf,
		strict:  strict,
		issued:  make(map[string]uint64),
	}
}

// Resolve verifies ref.Blob. Every failure, whether tampering, expiry, a
// malformed token or a code mismatch, is reported as a missing session.
func (s *Signed) Resolve(ref Ref) (*game.Session, error) {
	if ref.Blob == "" {
		return nil, game.ErrSessionNotFound
	}

	sess, err := s.codec.Decode(ref.Blob)
	if err != nil {
		s.logf("TOKEN: Rejected state token: %v", err)
		return nil, game.ErrSessionNotFound
	}
	if ref.Code != "" && sess.ID != ref.Code {
		s.logf("TOKEN: State token for %s presented as %s", sess.ID, ref.Code)
		return nil, game.ErrSessionNotFound
	}

	if s.strict {
		s.mu.Lock()
		latest := s.issued[gameKey(sess)]
		s.mu.Unlock()
		if sess.Version < latest {
			s.logf("TOKEN: Stale state token for %s (version %d, latest %d)", sess.ID, sess.Version, latest)
			return nil, game.ErrSessionNotFound
		}
	}

	return sess, nil
}

// Create returns a new lobby for code. Nothing is kept server-side.
func (s *Signed) Create(code string) *game.Session {
	return s.factory.NewSession(code)
}

func gameKey(sess *game.Session) string {
	return sess.ID + "/" + strconv.FormatInt(sess.CreatedAt.UnixNano(), 10)
}

// Persist bumps the version and signs sess.
func (s *Signed) Persist(sess *game.Session) (Ref, error) {
	return s.persist(sess, false)
}

// persist signs sess. A fresh session restarts the high-water mark for its
// game instead of raising it.
func (s *Signed) persist(sess *game.Session, fresh bool) (Ref, error) {
	sess.Version++

	blob, err := s.codec.Encode(sess)
	if err != nil {
		return Ref{}, err
	}

	if s.strict {
		key := gameKey(sess)
		s.mu.Lock()
		if fresh || sess.Version > s.issued[key] {
			s.issued[key] = sess.Version
		}
		s.mu.Unlock()
	}

	return Ref{Code: sess.ID, Blob: blob}, nil
}

// Update implements Store.
func (s *Signed) Update(ctx context.Context, ref Ref, create bool, fn func(*game.Session) error) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}

	fresh := false
	sess, err := s.Resolve(ref)
	if err != nil {
		if !create || ref.Code == "" {
			return Ref{}, err
		}
		sess = s.Create(ref.Code)
		fresh = true
	}

	if err := fn(sess); err != nil {
		return Ref{}, err
	}

	return s.persist(sess, fresh)
}
