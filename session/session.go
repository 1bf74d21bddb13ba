// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/crowdjudge/crowdjudge/api"
	"github.com/crowdjudge/crowdjudge/display"
	"github.com/crowdjudge/crowdjudge/models"
)

type State int

const (
	AwaitingIdentity State = iota
	AwaitingVote
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingVote:
		return "awaiting-vote"
	case Complete:
		return "complete"
	default:
		return "awaiting-identity"
	}
}

var (
	// ErrMissingFields is the client-side validation failure: both name and
	// phone are required before any network call is made.
	ErrMissingFields = errors.New("name and phone are required")

	ErrBadTransition = errors.New("operation not valid in current session state")
)

// Broadcaster propagates this client's vote result to other subscribers.
type Broadcaster interface {
	BroadcastVoteUpdate(groupID int, stats models.Stats) error
}

// Session walks an anonymous voter through identity verification, vote
// casting and completion for a single group.
type Session struct {
	mu      sync.Mutex
	state   State
	voter   *models.VerifyVoterResponse
	groupID int

	client    *api.Client
	display   *display.Controller
	broadcast Broadcaster // optional
}

// New creates a session scoped to the given group. broadcast may be nil when
// no push channel is connected.
func New(client *api.Client, disp *display.Controller, broadcast Broadcaster, groupID int) *Session {
	return &Session{
		client:    client,
		display:   disp,
		broadcast: broadcast,
		groupID:   groupID,
	}
}

// VerifyIdentity submits the voter's name and phone. Empty fields fail
// client-side with ErrMissingFields. On success the server's voter id and
// weight are cached; the weight is authoritative for display and never
// recomputed here.
func (s *Session) VerifyIdentity(ctx context.Context, name, phone string) error {
	s.mu.Lock()
	if s.state != AwaitingIdentity {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBadTransition, s.state)
	}
	groupID := s.groupID
	s.mu.Unlock()

	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return ErrMissingFields
	}

	var resp models.VerifyVoterResponse
	err := s.client.Call(ctx, http.MethodPost, "/verify-voter", models.VerifyVoterRequest{
		Name:    name,
		Phone:   phone,
		GroupID: groupID,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.VoterID == 0 || resp.Weight < 1 {
		return fmt.Errorf("malformed response: missing voter id or weight")
	}

	s.mu.Lock()
	s.voter = &resp
	s.state = AwaitingVote
	s.mu.Unlock()

	slog.Info("voter verified", "voter_id", resp.VoterID, "group_id", groupID, "weight", resp.Weight)
	return nil
}

// Cast submits a like (+1) or dislike (−1). Without a verified identity or a
// group this is a guarded no-op, not an error toward the user. On success
// the server's stats are merged into the current group immediately and the
// update is broadcast on the push channel.
func (s *Session) Cast(ctx context.Context, voteType int) (string, error) {
	s.mu.Lock()
	if s.state != AwaitingVote || s.voter == nil || s.groupID == 0 {
		s.mu.Unlock()
		slog.Debug("vote ignored without identity or group", "state", s.state.String())
		return "", nil
	}
	voterID := s.voter.VoterID
	groupID := s.groupID
	s.mu.Unlock()

	if voteType != models.VoteLike && voteType != models.VoteDislike {
		return "", fmt.Errorf("invalid vote type %d", voteType)
	}

	var resp models.VoteResponse
	err := s.client.Call(ctx, http.MethodPost, "/vote", models.VoteRequest{
		VoterID:  voterID,
		GroupID:  groupID,
		VoteType: voteType,
	}, &resp)
	if err != nil {
		// Server rejections (already voted, group locked) surface verbatim.
		return "", err
	}

	// Optimistic local reconciliation: do not wait on the push round trip.
	s.display.ApplyLocalVote(groupID, resp.Stats)

	if s.broadcast != nil {
		if err := s.broadcast.BroadcastVoteUpdate(groupID, resp.Stats); err != nil {
			slog.Warn("vote broadcast failed", "group_id", groupID, "error", err)
		}
	}

	s.mu.Lock()
	s.state = Complete
	s.mu.Unlock()

	slog.Info("vote cast", "voter_id", voterID, "group_id", groupID, "vote_type", voteType)
	return resp.Message, nil
}

// Return discards the cached identity. Re-entering the flow always requires
// re-verification.
func (s *Session) Return() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voter = nil
	s.state = AwaitingIdentity
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Voter returns the verified identity, or false before verification.
func (s *Session) Voter() (models.VerifyVoterResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voter == nil {
		return models.VerifyVoterResponse{}, false
	}
	return *s.voter, true
}

func (s *Session) GroupID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupID
}
