package game

import "testing"

func TestApplyScores(t *testing.T) {
	tests := []struct {
		name       string
		current    map[string]int
		votes      []Vote
		impostor   string
		want       map[string]int
		wantCaught bool
	}{
		{
			name:     "caught",
			current:  map[string]int{"a": 0, "b": 0, "c": 0},
			votes:    []Vote{{"a", "b"}, {"b", "b"}, {"c", "b"}},
			impostor: "b",
			want:     map[string]int{"a": 1, "b": 2, "c": 1},

			wantCaught: true,
		},
		{
			name:     "escaped",
			current:  map[string]int{"a": 2, "b": 0, "c": 5},
			votes:    []Vote{{"a", "c"}, {"b", "c"}, {"c", "c"}},
			impostor: "b",
			want:     map[string]int{"a": 2, "b": 3, "c": 5},
		},
		{
			name:     "split vote still catches",
			current:  map[string]int{},
			votes:    []Vote{{"a", "b"}, {"c", "a"}},
			impostor: "b",
			want:     map[string]int{"a": 1, "b": 1},

			wantCaught: true,
		},
		{
			name:     "nil scores start at zero",
			votes:    nil,
			impostor: "x",
			want:     map[string]int{"x": 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, caught := ApplyScores(tt.current, tt.votes, tt.impostor)
			if caught != tt.wantCaught {
				t.Fatalf("caught = %v, want %v", caught, tt.wantCaught)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("scores = %v, want %v", got, tt.want)
			}
			for id, score := range tt.want {
				if got[id] != score {
					t.Fatalf("scores = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestApplyScoresDoesNotMutateInput(t *testing.T) {
	current := map[string]int{"a": 1}
	_, _ = ApplyScores(current, []Vote{{"a", "b"}}, "b")
	if current["a"] != 1 || len(current) != 1 {
		t.Fatalf("input mutated: %v", current)
	}
}

func TestApplyScoresNeverDecrease(t *testing.T) {
	current := map[string]int{"a": 3, "b": 7, "c": 1}
	for _, target := range []string{"a", "b", "c"} {
		votes := []Vote{{"a", target}, {"b", target}, {"c", target}}
		got, _ := ApplyScores(current, votes, "b")
		for id, before := range current {
			if got[id] < before {
				t.Fatalf("score for %s decreased from %d to %d", id, before, got[id])
			}
		}
	}
}
