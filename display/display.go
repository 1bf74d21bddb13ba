// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package display

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/crowdjudge/crowdjudge/models"
)

var ErrUnknownGroup = errors.New("group not in current list")

// Joiner subscribes the client to a group's live updates. Selecting a group
// emits a join message; there is no corresponding leave - stale deltas are
// discarded on receipt instead.
type Joiner interface {
	JoinGroup(groupID int) error
}

// Controller owns the "current group" designation and reconciles its vote
// stats across three sources: full reloads, push deltas, and local optimistic
// updates after this client's own vote.
type Controller struct {
	mu        sync.Mutex
	groups    []models.Group
	currentID int // 0 = no group selected

	joiner Joiner // optional

	// onStats fires whenever the current group's stats change, so renderers
	// can recompute the score and pulse the display.
	onStats func(groupID int, stats models.Stats)
}

func NewController(joiner Joiner) *Controller {
	return &Controller{joiner: joiner}
}

// OnStatsChanged registers the stats-change observer. Renderers derive the
// score themselves from the delivered tuple.
func (c *Controller) OnStatsChanged(fn func(groupID int, stats models.Stats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStats = fn
}

// ApplyReload replaces the entire group list. If the previously current group
// id still exists it stays current with its new data; otherwise the first
// group becomes current, or none when the list is empty. Returns the current
// group after reconciliation.
func (c *Controller) ApplyReload(groups []models.Group) (models.Group, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.groups = make([]models.Group, len(groups))
	copy(c.groups, groups)

	if _, ok := c.indexOf(c.currentID); !ok {
		if len(c.groups) > 0 {
			c.currentID = c.groups[0].ID
		} else {
			c.currentID = 0
		}
	}
	return c.currentLocked()
}

// Select makes the group with the given id current and announces the
// subscription on the push channel.
func (c *Controller) Select(groupID int) (models.Group, error) {
	c.mu.Lock()
	idx, ok := c.indexOf(groupID)
	if !ok {
		c.mu.Unlock()
		return models.Group{}, ErrUnknownGroup
	}
	c.currentID = groupID
	g := c.groups[idx]
	joiner := c.joiner
	c.mu.Unlock()

	if joiner != nil {
		if err := joiner.JoinGroup(groupID); err != nil {
			// Live updates degrade to reload-only; selection still succeeded.
			slog.Warn("join_group failed", "group_id", groupID, "error", err)
		}
	}
	return g, nil
}

// ApplyDelta applies a push delta. Deltas for any group other than the
// current one are discarded as stale. On match the stats are replaced
// wholesale, never merged field by field.
func (c *Controller) ApplyDelta(groupID int, stats models.Stats) bool {
	return c.replaceStats(groupID, stats)
}

// ApplyLocalVote applies this client's own vote result ahead of the
// round-trip push delta, using the same replace-wholesale rule.
func (c *Controller) ApplyLocalVote(groupID int, stats models.Stats) bool {
	return c.replaceStats(groupID, stats)
}

func (c *Controller) replaceStats(groupID int, stats models.Stats) bool {
	c.mu.Lock()
	if groupID != c.currentID {
		c.mu.Unlock()
		slog.Debug("discarding stats for non-current group", "group_id", groupID, "current", c.currentID)
		return false
	}
	idx, ok := c.indexOf(groupID)
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.groups[idx].VoteStats = stats
	onStats := c.onStats
	c.mu.Unlock()

	if onStats != nil {
		onStats(groupID, stats)
	}
	return true
}

// Current returns a copy of the current group, or false when none is selected.
func (c *Controller) Current() (models.Group, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

// CurrentID returns the current group id, or 0. Callers applying results of
// superseded in-flight fetches check against this before rendering.
func (c *Controller) CurrentID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// Groups returns a copy of the group list in fetch order.
func (c *Controller) Groups() []models.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Group, len(c.groups))
	copy(out, c.groups)
	return out
}

// Ranking orders the known groups by score descending and assigns 1-based
// ranks. The score is recomputed here from each stats tuple.
func (c *Controller) Ranking() []models.RankingEntry {
	groups := c.Groups()

	entries := make([]models.RankingEntry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, models.RankingEntry{
			ID:         g.ID,
			Name:       g.Name,
			Logo:       g.Logo,
			Likes:      g.VoteStats.Likes,
			Dislikes:   g.VoteStats.Dislikes,
			TotalScore: g.VoteStats.Score(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (c *Controller) currentLocked() (models.Group, bool) {
	idx, ok := c.indexOf(c.currentID)
	if !ok {
		return models.Group{}, false
	}
	return c.groups[idx], true
}

func (c *Controller) indexOf(groupID int) (int, bool) {
	if groupID == 0 {
		return 0, false
	}
	for i, g := range c.groups {
		if g.ID == groupID {
			return i, true
		}
	}
	return 0, false
}
