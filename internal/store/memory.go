/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"sync"
	"time"

	"github.com/Seednode/impostor/internal/game"
)

type entry struct {
	mu      sync.Mutex
	session *game.Session
	gone    bool // set once the entry has left the table
}

// Memory is a process-local session table. Each session has its own lock,
// held for the whole resolve-mutate-persist cycle of a request.
type Memory struct {
	factory    Factory
	sessionTTL time.Duration
	playerTTL  time.Duration
	logf       Logf

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewMemory returns an empty table. Sessions idle for longer than
// sessionTTL are dropped; players silent for longer than playerTTL are
// removed from their session. A zero TTL disables that eviction.
func NewMemory(factory Factory, sessionTTL, playerTTL time.Duration, logf Logf) *Memory {
	if logf == nil {
		logf = nopLogf
	}
	return &Memory{
		factory:    factory,
		sessionTTL: sessionTTL,
		playerTTL:  playerTTL,
		logf:       logf,
		sessions:   make(map[string]*entry),
	}
}

// Len returns the number of live sessions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// lookup returns the entry for code, adding an empty lobby when create is
// set. fresh reports whether this call added it.
func (m *Memory) lookup(code string, create bool) (e *entry, fresh bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[code]; ok {
		return e, false
	}
	if !create {
		return nil, false
	}

	e = &entry{session: m.factory.NewSession(code)}
	m.sessions[code] = e
	return e, true
}

func (m *Memory) discard(code string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[code] == e {
		delete(m.sessions, code)
	}
	e.gone = true
}

// Resolve returns a copy of the session for ref.Code.
func (m *Memory) Resolve(ref Ref) (*game.Session, error) {
	for {
		e, _ := m.lookup(ref.Code, false)
		if e == nil {
			return nil, game.ErrSessionNotFound
		}

		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		s := e.session.Clone()
		e.mu.Unlock()
		return s, nil
	}
}

// Create returns a copy of the session for code, adding an empty lobby if
// the code is unused.
func (m *Memory) Create(code string) *game.Session {
	for {
		e, _ := m.lookup(code, true)

		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		s := e.session.Clone()
		e.mu.Unlock()
		return s
	}
}

// Persist replaces the stored session with a copy of s.
func (m *Memory) Persist(s *game.Session) (Ref, error) {
	for {
		e, _ := m.lookup(s.ID, true)

		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		ref := m.persistLocked(e, s.Clone())
		e.mu.Unlock()
		return ref, nil
	}
}

func (m *Memory) persistLocked(e *entry, s *game.Session) Ref {
	s.Version = e.session.Version + 1
	e.session = s
	return Ref{Code: s.ID}
}

// Update implements Store. A session created by this call is dropped again
// if fn fails, so rejected joins leave no empty lobbies behind.
func (m *Memory) Update(ctx context.Context, ref Ref, create bool, fn func(*game.Session) error) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}

	m.Sweep()

	for {
		e, fresh := m.lookup(ref.Code, create)
		if e == nil {
			return Ref{}, game.ErrSessionNotFound
		}

		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}

		work := e.session.Clone()
		if err := fn(work); err != nil {
			if fresh {
				m.discard(ref.Code, e)
			}
			e.mu.Unlock()
			return Ref{}, err
		}

		out := m.persistLocked(e, work)
		e.mu.Unlock()
		return out, nil
	}
}

// Sweep evicts idle sessions and silent players. Sessions whose lock is
// held by a request in flight are active and are skipped.
func (m *Memory) Sweep() (sessions, players int) {
	now := m.factory.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for code, e := range m.sessions {
		if !e.mu.TryLock() {
			continue
		}

		if m.sessionTTL > 0 && now.Sub(e.session.UpdatedAt) > m.sessionTTL {
			delete(m.sessions, code)
			e.gone = true
			e.mu.Unlock()
			sessions++
			m.logf("GAMES: Session %s expired after %s idle", code, now.Sub(e.session.UpdatedAt).Round(time.Second))
			continue
		}

		if m.playerTTL > 0 {
			removed := game.RemoveStalePlayers(e.session, now.Add(-m.playerTTL))
			for _, id := range removed {
				m.logf("GAMES: Player %s timed out of %s", id, code)
			}
			players += len(removed)
		}
		e.mu.Unlock()
	}

	return sessions, players
}

// Run sweeps on a ticker until ctx is done.
func (m *Memory) Run(ctx context.Context) {
	interval := m.sweepInterval()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Memory) sweepInterval() time.Duration {
	switch {
	case m.playerTTL > 0 && (m.sessionTTL <= 0 || m.playerTTL < m.sessionTTL):
		return m.playerTTL / 2
	case m.sessionTTL > 0:
		return m.sessionTTL / 2
	}
	return 0
}
