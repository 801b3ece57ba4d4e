/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package game holds the session model and the round engine that moves a
// session through its lobby, round, vote, reveal and ended states.
package game

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusLobby  Status = "lobby"
	StatusRound  Status = "round"
	StatusVote   Status = "vote"
	StatusReveal Status = "reveal"
	StatusEnded  Status = "ended"
)

const (
	MinCodeLength = 4
	MaxCodeLength = 10
	MaxNameLength = 18
)

// Player is one participant. The secret token is never kept, only its digest.
type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TokenDigest string    `json:"tokenDigest"`
	Alive       bool      `json:"alive"`
	JoinedAt    time.Time `json:"joinedAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

// Vote is a single ballot.
type Vote struct {
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

// Session is one instance of the game. Field order is the canonical
// serialization order used by signed state tokens.
type Session struct {
	ID             string         `json:"id"`
	Version        uint64         `json:"version"`
	Mode           Mode           `json:"mode"`
	Status         Status         `json:"status"`
	RoundNumber    int            `json:"roundNumber"`
	AdminPlayerID  string         `json:"adminPlayerId,omitempty"`
	Word           string         `json:"word,omitempty"`
	Hint           *string        `json:"hint,omitempty"`
	ImpostorID     string         `json:"impostorId,omitempty"`
	HandoutIndex   int            `json:"handoutIndex"`
	Selection      string         `json:"selection,omitempty"`
	Votes          []Vote         `json:"votes,omitempty"`
	ImpostorCaught bool           `json:"impostorCaught,omitempty"`
	Scores         map[string]int `json:"scores"`
	Players        []Player       `json:"players"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NewSession returns an empty lobby for code.
func NewSession(code string, mode Mode, now time.Time) *Session {
	return &Session{
		ID:        code,
		Mode:      mode,
		Status:    StatusLobby,
		Scores:    make(map[string]int),
		Players:   []Player{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Hint != nil {
		h := *s.Hint
		c.Hint = &h
	}
	c.Votes = slices.Clone(s.Votes)
	c.Players = slices.Clone(s.Players)
	c.Scores = maps.Clone(s.Scores)
	if c.Scores == nil {
		c.Scores = make(map[string]int)
	}
	if c.Players == nil {
		c.Players = []Player{}
	}
	return &c
}

// Player returns the player with id, or nil.
func (s *Session) Player(id string) *Player {
	if id == "" {
		return nil
	}
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// Authenticate resolves a secret token to its player, or nil.
func (s *Session) Authenticate(token string) *Player {
	if token == "" {
		return nil
	}
	digest := []byte(DigestToken(token))
	for i := range s.Players {
		if subtle.ConstantTimeCompare(digest, []byte(s.Players[i].TokenDigest)) == 1 {
			return &s.Players[i]
		}
	}
	return nil
}

// AliveCount returns the number of players not eliminated.
func (s *Session) AliveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Alive {
			n++
		}
	}
	return n
}

// IsAdmin reports whether id is the session's admin.
func (s *Session) IsAdmin(id string) bool {
	return id != "" && s.AdminPlayerID == id
}

// InRound reports whether round secrets are meaningful in the current status.
func (s *Session) InRound() bool {
	switch s.Status {
	case StatusRound, StatusVote, StatusReveal:
		return s.Word != "" && s.ImpostorID != ""
	}
	return false
}

func (s *Session) clearRound() {
	s.Word = ""
	s.Hint = nil
	s.ImpostorID = ""
	s.HandoutIndex = 0
	s.Selection = ""
	s.Votes = nil
	s.ImpostorCaught = false
}

// DigestToken returns the hex SHA-256 of a player token.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NormalizeCode upper-cases raw and drops anything outside [A-Z0-9]. It
// returns false when the result is not 4-10 characters long.
func NormalizeCode(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return "", false
	}
	return code, true
}

// SanitizeName trims raw and cuts it to MaxNameLength characters.
func SanitizeName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", false
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name, true
}
