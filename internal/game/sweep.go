/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"slices"
	"time"
)

// PromoteAdmin hands the admin role to the longest-tenured remaining player
// when the current admin is gone, or clears it when nobody is left.
func PromoteAdmin(s *Session) {
	if s.Player(s.AdminPlayerID) != nil {
		return
	}

	s.AdminPlayerID = ""
	var senior *Player
	for i := range s.Players {
		if senior == nil || s.Players[i].JoinedAt.Before(senior.JoinedAt) {
			senior = &s.Players[i]
		}
	}
	if senior != nil {
		s.AdminPlayerID = senior.ID
	}
}

// RemoveStalePlayers drops every player last seen before cutoff, which also
// releases their token. Scores are kept. A round whose impostor left before
// the reveal is voided back to the lobby. It returns the removed ids.
func RemoveStalePlayers(s *Session, cutoff time.Time) []string {
	var removed []string
	s.Players = slices.DeleteFunc(s.Players, func(p Player) bool {
		if p.LastSeenAt.Before(cutoff) {
			removed = append(removed, p.ID)
			return true
		}
		return false
	})
	if len(removed) == 0 {
		return nil
	}

	if (s.Status == StatusRound || s.Status == StatusVote) && slices.Contains(removed, s.ImpostorID) {
		s.Status = StatusLobby
		s.clearRound()
	}

	PromoteAdmin(s)

	return removed
}
