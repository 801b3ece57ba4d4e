/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package protocol

import (
	"maps"
	"slices"
	"time"

	"github.com/Seednode/impostor/internal/game"
)

// PlayerSummary is what every player may know about every other player.
type PlayerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
}

// Reveal is published once a turns-mode vote has closed.
type Reveal struct {
	ImpostorID     string      `json:"impostorId"`
	Word           string      `json:"word"`
	Selection      string      `json:"selection"`
	ImpostorCaught bool        `json:"impostorCaught"`
	Votes          []game.Vote `json:"votes"`
}

// PublicView is the session as every member sees it. It never carries the
// word, hint or impostor before the reveal.
type PublicView struct {
	ID            string          `json:"id"`
	Mode          game.Mode       `json:"mode"`
	Status        game.Status     `json:"status"`
	RoundNumber   int             `json:"roundNumber"`
	AdminPlayerID *string         `json:"adminPlayerId"`
	Players       []PlayerSummary `json:"players"`
	Scores        map[string]int  `json:"scores"`
	HandoutIndex  int             `json:"handoutIndex"`
	Reveal        *Reveal         `json:"reveal"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// RoundView is one player's share of the round secrets.
type RoundView struct {
	IsImpostor bool    `json:"isImpostor"`
	Word       *string `json:"word"`
	Hint       *string `json:"hint"`
}

// PrivateView is what a single player is allowed to see about themselves.
type PrivateView struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	IsAdmin bool       `json:"isAdmin"`
	Alive   bool       `json:"alive"`
	Round   *RoundView `json:"round"`
}

// NewPublicView projects s for all members.
func NewPublicView(s *game.Session) *PublicView {
	v := &PublicView{
		ID:           s.ID,
		Mode:         s.Mode,
		Status:       s.Status,
		RoundNumber:  s.RoundNumber,
		Players:      make([]PlayerSummary, 0, len(s.Players)),
		Scores:       maps.Clone(s.Scores),
		HandoutIndex: s.HandoutIndex,
		UpdatedAt:    s.UpdatedAt,
	}
	if v.Scores == nil {
		v.Scores = map[string]int{}
	}
	if s.AdminPlayerID != "" {
		admin := s.AdminPlayerID
		v.AdminPlayerID = &admin
	}
	for _, p := range s.Players {
		v.Players = append(v.Players, PlayerSummary{ID: p.ID, Name: p.Name, Alive: p.Alive})
	}

	if s.Status == game.StatusReveal {
		v.Reveal = &Reveal{
			ImpostorID:     s.ImpostorID,
			Word:           s.Word,
			Selection:      s.Selection,
			ImpostorCaught: s.ImpostorCaught,
			Votes:          slices.Clone(s.Votes),
		}
	}

	return v
}

// NewPrivateView projects s for player id, or returns nil when id is not a
// member. Living non-impostors get the word; a living impostor gets the
// hint, if any.
func NewPrivateView(s *game.Session, id string) *PrivateView {
	p := s.Player(id)
	if p == nil {
		return nil
	}

	v := &PrivateView{
		ID:      p.ID,
		Name:    p.Name,
		IsAdmin: s.IsAdmin(p.ID),
		Alive:   p.Alive,
	}

	if (s.Status == game.StatusRound || s.Status == game.StatusVote) && s.InRound() {
		r := &RoundView{IsImpostor: s.ImpostorID == p.ID}
		switch {
		case !p.Alive:
		case r.IsImpostor:
			if s.Hint != nil {
				hint := *s.Hint
				r.Hint = &hint
			}
		default:
			word := s.Word
			r.Word = &word
		}
		v.Round = r
	}

	return v
}
