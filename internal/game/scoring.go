/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "maps"

const (
	pointsCorrectVote    = 1
	pointsImpostorCaught = 1
	pointsImpostorEscape = 3
)

// ApplyScores returns current with the round's awards added, and whether any
// ballot named the impostor. Every ballot naming the impostor earns its
// voter a point, including a ballot cast by the impostor. On top of that the
// impostor earns one point when caught and three when no ballot named them.
func ApplyScores(current map[string]int, votes []Vote, impostorID string) (map[string]int, bool) {
	next := maps.Clone(current)
	if next == nil {
		next = make(map[string]int)
	}

	caught := false
	for _, v := range votes {
		if v.TargetID != impostorID {
			continue
		}
		caught = true
		next[v.VoterID] += pointsCorrectVote
	}

	if caught {
		next[impostorID] += pointsImpostorCaught
	} else {
		next[impostorID] += pointsImpostorEscape
	}

	return next, caught
}
