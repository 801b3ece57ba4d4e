/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Seednode/impostor/internal/words"
	"github.com/google/uuid"
)

// Mode selects which of the two round state machines a session follows.
//
//	elimination: lobby -> round -> (nextRound)* -> round -> (kill, alive<2) -> ended -> (reset) -> lobby
//	turns:       lobby -> round -> (advance)xN -> vote -> (vote) -> reveal -> (advance) -> round | ended
type Mode string

const (
	ModeElimination Mode = "elimination"
	ModeTurns       Mode = "turns"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeElimination, ModeTurns:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown game mode %q (want %q or %q)", s, ModeElimination, ModeTurns)
}

func (s *Session) mode() Mode {
	if s.Mode == "" {
		return ModeElimination
	}
	return s.Mode
}

// Eligibility selects which players may be drawn as impostor.
type Eligibility string

const (
	EligibleAlive Eligibility = "alive"
	EligibleAll   Eligibility = "all"
)

// ParseEligibility validates a configured eligibility policy. An empty
// string selects the mode's default.
func ParseEligibility(s string) (Eligibility, error) {
	switch Eligibility(s) {
	case "", EligibleAlive, EligibleAll:
		return Eligibility(s), nil
	}
	return "", fmt.Errorf("unknown eligibility %q (want %q or %q)", s, EligibleAlive, EligibleAll)
}

// Rules configure the engine.
type Rules struct {
	Mode Mode

	// Eligibility defaults to alive players in elimination mode and all
	// players in turns mode.
	Eligibility Eligibility

	// StrictStart rejects a round with fewer than two eligible players
	// instead of ending the game.
	StrictStart bool
}

// RoundOptions are supplied by the admin when a round begins.
type RoundOptions struct {
	ShowHints bool
}

// Engine applies state transitions to sessions. Every method checks all of
// its preconditions before touching the session, so a returned error means
// the session is unchanged.
type Engine struct {
	rules    Rules
	picker   *words.Picker
	now      func() time.Time
	newID    func() string
	newToken func() (string, error)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIdentity replaces the player id and token generators.
func WithIdentity(newID func() string, newToken func() (string, error)) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
		if newToken != nil {
			e.newToken = newToken
		}
	}
}

// NewEngine returns an engine drawing words and impostors from picker.
func NewEngine(rules Rules, picker *words.Picker, opts ...Option) *Engine {
	if rules.Mode == "" {
		rules.Mode = ModeElimination
	}
	if picker == nil {
		picker = words.NewPicker(nil, nil)
	}
	e := &Engine{
		rules:    rules,
		picker:   picker,
		now:      time.Now,
		newID:    newPlayerID,
		newToken: newPlayerToken,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine configuration.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// NewSession returns an empty lobby in the engine's mode.
func (e *Engine) NewSession(code string) *Session {
	return NewSession(code, e.rules.Mode, e.now())
}

func newPlayerID() string {
	return "p_" + uuid.NewString()
}

func newPlayerToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "t_" + hex.EncodeToString(buf), nil
}

// Join adds a player to a lobby and returns it with its secret token. The
// first joiner, or any joiner while the session has no admin, becomes admin.
func (e *Engine) Join(s *Session, rawName string) (*Player, string, error) {
	name, ok := SanitizeName(rawName)
	if !ok {
		return nil, "", ErrNameRequired
	}
	if s.Status != StatusLobby {
		return nil, "", ErrJoinAfterStart
	}

	token, err := e.newToken()
	if err != nil {
		return nil, "", fmt.Errorf("issue player token: %w", err)
	}
	for s.Authenticate(token) != nil {
		if token, err = e.newToken(); err != nil {
			return nil, "", fmt.Errorf("issue player token: %w", err)
		}
	}

	id := e.newID()
	for s.Player(id) != nil {
		id = e.newID()
	}

	now := e.now()
	s.Players = append(s.Players, Player{
		ID:          id,
		Name:        name,
		TokenDigest: DigestToken(token),
		Alive:       true,
		JoinedAt:    now,
		LastSeenAt:  now,
	})
	if s.Scores == nil {
		s.Scores = make(map[string]int)
	}
	if _, ok := s.Scores[id]; !ok {
		s.Scores[id] = 0
	}
	if s.Player(s.AdminPlayerID) == nil {
		s.AdminPlayerID = id
	}
	s.UpdatedAt = now

	return s.Player(id), token, nil
}

// Touch records that p is still polling. It never changes game progression.
func (e *Engine) Touch(s *Session, p *Player) {
	now := e.now()
	p.LastSeenAt = now
	s.UpdatedAt = now
}

// Rename changes p's display name.
func (e *Engine) Rename(s *Session, p *Player, rawName string) error {
	name, ok := SanitizeName(rawName)
	if !ok {
		return ErrNameRequired
	}
	p.Name = name
	e.Touch(s, p)
	return nil
}

// StartRound begins the first round from the lobby.
func (e *Engine) StartRound(s *Session, opts RoundOptions) error {
	switch s.Status {
	case StatusLobby:
		return e.beginRound(s, opts)
	case StatusEnded:
		return ErrGameEnded
	default:
		return ErrAlreadyStarted
	}
}

// NextRound deals a fresh word and impostor in elimination mode.
func (e *Engine) NextRound(s *Session, opts RoundOptions) error {
	if s.mode() != ModeElimination {
		return ErrWrongMode
	}
	if s.Status == StatusEnded {
		return ErrGameEnded
	}
	return e.beginRound(s, opts)
}

// Advance moves the turns-mode handout to the next player, opens the vote
// once every player has seen their card, and deals the next round from the
// reveal screen.
func (e *Engine) Advance(s *Session, opts RoundOptions) error {
	if s.mode() != ModeTurns {
		return ErrWrongMode
	}
	switch s.Status {
	case StatusRound:
		next := s.HandoutIndex + 1
		if next >= len(s.Players) {
			s.Status = StatusVote
			s.Selection = ""
			s.Votes = nil
		} else {
			s.HandoutIndex = next
		}
		s.UpdatedAt = e.now()
		return nil
	case StatusReveal:
		return e.beginRound(s, opts)
	case StatusEnded:
		return ErrGameEnded
	default:
		return ErrNotInRound
	}
}

// RecordVote closes the vote with every player naming selection, scores the
// round and moves to the reveal.
func (e *Engine) RecordVote(s *Session, selection string) error {
	if s.mode() != ModeTurns {
		return ErrWrongMode
	}
	if s.Status != StatusVote {
		return ErrNotVoting
	}
	if selection == "" {
		return ErrMissingTarget
	}
	if s.Player(selection) == nil {
		return ErrTargetNotFound
	}

	votes := make([]Vote, 0, len(s.Players))
	for _, p := range s.Players {
		votes = append(votes, Vote{VoterID: p.ID, TargetID: selection})
	}

	s.Scores, s.ImpostorCaught = ApplyScores(s.Scores, votes, s.ImpostorID)
	s.Selection = selection
	s.Votes = votes
	s.Status = StatusReveal
	s.UpdatedAt = e.now()
	return nil
}

// Eliminate marks target as out. With fewer than two players left alive the
// game ends and the round secrets are cleared.
func (e *Engine) Eliminate(s *Session, targetID string) error {
	if s.mode() != ModeElimination {
		return ErrWrongMode
	}
	if targetID == "" {
		return ErrMissingTarget
	}
	target := s.Player(targetID)
	if target == nil {
		return ErrTargetNotFound
	}

	target.Alive = false
	if s.AliveCount() < 2 {
		s.Status = StatusEnded
		s.clearRound()
	}
	s.UpdatedAt = e.now()
	return nil
}

// Reset returns to the lobby and revives everyone. Scores, membership and
// the round counter are kept.
func (e *Engine) Reset(s *Session) {
	s.Status = StatusLobby
	s.clearRound()
	for i := range s.Players {
		s.Players[i].Alive = true
	}
	s.UpdatedAt = e.now()
}

func (e *Engine) eligibility(s *Session) Eligibility {
	if e.rules.Eligibility != "" {
		return e.rules.Eligibility
	}
	if s.mode() == ModeTurns {
		return EligibleAll
	}
	return EligibleAlive
}

// Eligible returns the players that may be drawn as impostor.
func (e *Engine) Eligible(s *Session) []Player {
	all := e.eligibility(s) == EligibleAll
	out := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if all || p.Alive {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) beginRound(s *Session, opts RoundOptions) error {
	eligible := e.Eligible(s)
	if len(eligible) < 2 {
		if e.rules.StrictStart {
			return ErrInsufficientPlayers
		}
		s.Status = StatusEnded
		s.clearRound()
		s.UpdatedAt = e.now()
		return nil
	}

	word := e.picker.PickWord()
	hint := e.picker.PickHint(word, opts.ShowHints)
	impostor := words.PickImpostor(e.picker, eligible)

	s.clearRound()
	s.Status = StatusRound
	s.RoundNumber++
	s.Word = word
	s.Hint = hint
	s.ImpostorID = impostor.ID
	s.UpdatedAt = e.now()
	return nil
}
