package models

import (
	"encoding/json"
	"testing"
)

func TestStatsScore(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  int
	}{
		{"zero", Stats{}, 0},
		{"likes only", Stats{Likes: 7}, 7},
		{"dislikes only", Stats{Dislikes: 4}, -4},
		{"negative result", Stats{Likes: 2, Dislikes: 5}, -3},
		{"weighted totals", Stats{Likes: 31, Dislikes: 12}, 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.Score(); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGroupDecodeIgnoresPrecomputedTotal(t *testing.T) {
	// Older servers include a precomputed "total" inside vote_stats. The
	// client must derive the score itself rather than trust that field.
	raw := `{"id":3,"name":"第3小组","status":0,"photos":[],"vote_stats":{"likes":2,"dislikes":5,"total":99}}`

	var g Group
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if g.VoteStats.Score() != -3 {
		t.Errorf("Score() = %d, want -3", g.VoteStats.Score())
	}
}

func TestGroupLocked(t *testing.T) {
	if (Group{Status: StatusOpen}).Locked() {
		t.Error("open group reported locked")
	}
	if !(Group{Status: StatusLocked}).Locked() {
		t.Error("locked group reported open")
	}
}
