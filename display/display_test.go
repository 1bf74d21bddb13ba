package display

import (
	"errors"
	"testing"

	"github.com/crowdjudge/crowdjudge/models"
)

type recordingJoiner struct {
	joined []int
	err    error
}

func (j *recordingJoiner) JoinGroup(groupID int) error {
	j.joined = append(j.joined, groupID)
	return j.err
}

func groupList(ids ...int) []models.Group {
	groups := make([]models.Group, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, models.Group{ID: id, Name: "group", Photos: []string{}})
	}
	return groups
}

func TestApplyReloadKeepsCurrentByID(t *testing.T) {
	c := NewController(nil)
	c.ApplyReload(groupList(1, 2, 3))
	if _, err := c.Select(2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	// Reload with fresh instances carrying new data for the same id.
	fresh := groupList(3, 2, 1)
	fresh[1].VoteStats = models.Stats{Likes: 10, Dislikes: 4}
	cur, ok := c.ApplyReload(fresh)
	if !ok {
		t.Fatal("expected a current group after reload")
	}
	if cur.ID != 2 {
		t.Errorf("current id = %d, want 2 preserved across reload", cur.ID)
	}
	if cur.VoteStats.Likes != 10 {
		t.Error("current group not refreshed to the new instance's data")
	}
}

func TestApplyReloadFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		reload   []models.Group
		wantID   int
		wantOK   bool
	}{
		{"current removed falls back to first", 2, groupList(5, 6), 5, true},
		{"empty list clears selection", 2, nil, 0, false},
		{"nothing selected picks first", 0, groupList(7, 8), 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(nil)
			c.ApplyReload(groupList(1, 2, 3))
			if tt.selected != 0 {
				if _, err := c.Select(tt.selected); err != nil {
					t.Fatalf("Select failed: %v", err)
				}
			} else {
				// Start from an empty controller for the no-selection case.
				c = NewController(nil)
			}

			cur, ok := c.ApplyReload(tt.reload)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && cur.ID != tt.wantID {
				t.Errorf("current id = %d, want %d", cur.ID, tt.wantID)
			}
		})
	}
}

func TestApplyDeltaDiscardsStaleGroup(t *testing.T) {
	c := NewController(nil)
	c.ApplyReload(groupList(1, 2))
	if _, err := c.Select(1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	before, _ := c.Current()

	if applied := c.ApplyDelta(2, models.Stats{Likes: 99}); applied {
		t.Error("delta for non-current group was applied")
	}

	after, _ := c.Current()
	if after.VoteStats != before.VoteStats {
		t.Error("stale delta altered displayed stats")
	}
}

func TestApplyDeltaReplacesWholesale(t *testing.T) {
	c := NewController(nil)
	groups := groupList(1)
	groups[0].VoteStats = models.Stats{Likes: 4, Dislikes: 9}
	c.ApplyReload(groups)

	var pulsedID int
	var pulsedStats models.Stats
	c.OnStatsChanged(func(groupID int, stats models.Stats) {
		pulsedID = groupID
		pulsedStats = stats
	})

	// A delta with a zero field must zero the stored field, not keep the old
	// value - replacement, not merge.
	if applied := c.ApplyDelta(1, models.Stats{Likes: 5}); !applied {
		t.Fatal("delta for current group was not applied")
	}

	cur, _ := c.Current()
	if cur.VoteStats != (models.Stats{Likes: 5, Dislikes: 0}) {
		t.Errorf("stats = %+v, want wholesale replacement", cur.VoteStats)
	}
	if pulsedID != 1 || pulsedStats != cur.VoteStats {
		t.Errorf("observer got (%d, %+v)", pulsedID, pulsedStats)
	}
}

func TestApplyLocalVoteSameRule(t *testing.T) {
	c := NewController(nil)
	c.ApplyReload(groupList(1, 2))
	if _, err := c.Select(2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if applied := c.ApplyLocalVote(2, models.Stats{Likes: 1, Dislikes: 2}); !applied {
		t.Fatal("local vote for current group not applied")
	}
	cur, _ := c.Current()
	if cur.VoteStats.Score() != -1 {
		t.Errorf("score = %d, want -1", cur.VoteStats.Score())
	}

	// A local vote result arriving after the user navigated away is dropped.
	if _, err := c.Select(1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if applied := c.ApplyLocalVote(2, models.Stats{Likes: 50}); applied {
		t.Error("local vote for superseded group was applied")
	}
}

func TestSelectEmitsJoin(t *testing.T) {
	j := &recordingJoiner{}
	c := NewController(j)
	c.ApplyReload(groupList(1, 2))

	if _, err := c.Select(2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(j.joined) != 1 || j.joined[0] != 2 {
		t.Errorf("joined = %v, want [2]", j.joined)
	}

	// A failing join does not undo the selection.
	j.err = errors.New("channel down")
	if _, err := c.Select(1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if c.CurrentID() != 1 {
		t.Errorf("current = %d, want 1 despite join failure", c.CurrentID())
	}
}

func TestSelectUnknownGroup(t *testing.T) {
	c := NewController(nil)
	c.ApplyReload(groupList(1))

	if _, err := c.Select(42); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("err = %v, want ErrUnknownGroup", err)
	}
}

func TestRanking(t *testing.T) {
	c := NewController(nil)
	groups := groupList(1, 2, 3)
	groups[0].VoteStats = models.Stats{Likes: 2, Dislikes: 5} // score -3
	groups[1].VoteStats = models.Stats{Likes: 8, Dislikes: 1} // score 7
	groups[2].VoteStats = models.Stats{Likes: 4, Dislikes: 4} // score 0
	c.ApplyReload(groups)

	ranking := c.Ranking()
	wantOrder := []int{2, 3, 1}
	wantScores := []int{7, 0, -3}
	for i := range wantOrder {
		if ranking[i].ID != wantOrder[i] {
			t.Errorf("ranking[%d].ID = %d, want %d", i, ranking[i].ID, wantOrder[i])
		}
		if ranking[i].TotalScore != wantScores[i] {
			t.Errorf("ranking[%d].TotalScore = %d, want %d", i, ranking[i].TotalScore, wantScores[i])
		}
		if ranking[i].Rank != i+1 {
			t.Errorf("ranking[%d].Rank = %d, want %d", i, ranking[i].Rank, i+1)
		}
	}
}
