// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package admin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/crowdjudge/crowdjudge/api"
	"github.com/crowdjudge/crowdjudge/models"
)

// Timestamp layouts the server has been seen emitting.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Console is the admin workspace: local caches of groups, voters and roles
// plus the management operations over them. All mutations go through the
// server first; the cache follows.
type Console struct {
	client *api.Client

	mu     sync.Mutex
	groups []models.Group
	voters []models.Voter
	roles  []models.Role
}

func NewConsole(client *api.Client) *Console {
	return &Console{client: client}
}

// LoadAll refreshes every cache in one pass. Voters are only fetched here,
// behind admin auth; they are never loaded for anonymous surfaces.
func (c *Console) LoadAll(ctx context.Context) error {
	var groups []models.Group
	if err := c.client.Call(ctx, http.MethodGet, "/groups", nil, &groups); err != nil {
		return fmt.Errorf("loading groups: %w", err)
	}
	var voters []models.Voter
	if err := c.client.Call(ctx, http.MethodGet, "/voters", nil, &voters); err != nil {
		return fmt.Errorf("loading voters: %w", err)
	}
	var roles []models.Role
	if err := c.client.Call(ctx, http.MethodGet, "/roles", nil, &roles); err != nil {
		return fmt.Errorf("loading roles: %w", err)
	}

	c.mu.Lock()
	c.groups = groups
	c.voters = voters
	c.roles = roles
	c.mu.Unlock()

	slog.Info("admin data loaded", "groups", len(groups), "voters", len(voters), "roles", len(roles))
	return nil
}

func (c *Console) Groups() []models.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Group, len(c.groups))
	copy(out, c.groups)
	return out
}

func (c *Console) Voters() []models.Voter {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Voter, len(c.voters))
	copy(out, c.voters)
	return out
}

func (c *Console) Roles() []models.Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Role, len(c.roles))
	copy(out, c.roles)
	return out
}

// GroupByID resolves a group from the cache. The error is user-facing; a
// miss usually means another admin deleted it since the last load.
func (c *Console) GroupByID(id int) (models.Group, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return models.Group{}, fmt.Errorf("小组不存在 (id %d)", id)
}

func (c *Console) VoterByID(id int) (models.Voter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range c.voters {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Voter{}, fmt.Errorf("评价人不存在 (id %d)", id)
}

// Group management

func (c *Console) CreateGroup(ctx context.Context, req models.CreateGroupRequest) (models.Group, error) {
	var g models.Group
	if err := c.client.Call(ctx, http.MethodPost, "/groups", req, &g); err != nil {
		return models.Group{}, err
	}
	c.mu.Lock()
	c.groups = append(c.groups, g)
	c.mu.Unlock()
	return g, nil
}

func (c *Console) UpdateGroup(ctx context.Context, id int, req models.CreateGroupRequest) (models.Group, error) {
	var g models.Group
	if err := c.client.Call(ctx, http.MethodPut, fmt.Sprintf("/groups/%d", id), req, &g); err != nil {
		return models.Group{}, err
	}
	c.mu.Lock()
	for i := range c.groups {
		if c.groups[i].ID == id {
			c.groups[i] = g
		}
	}
	c.mu.Unlock()
	return g, nil
}

func (c *Console) DeleteGroup(ctx context.Context, id int) error {
	if err := c.client.Call(ctx, http.MethodDelete, fmt.Sprintf("/groups/%d", id), nil, nil); err != nil {
		return err
	}
	c.mu.Lock()
	for i := range c.groups {
		if c.groups[i].ID == id {
			c.groups = append(c.groups[:i], c.groups[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// SetGroupLock opens or closes voting on a group. Locking is what freezes
// the final tally for the ranking reveal.
func (c *Console) SetGroupLock(ctx context.Context, id int, lock bool) (models.Group, error) {
	var g models.Group
	err := c.client.Call(ctx, http.MethodPost, fmt.Sprintf("/groups/%d/lock", id),
		models.LockGroupRequest{Lock: lock}, &g)
	if err != nil {
		return models.Group{}, err
	}
	c.mu.Lock()
	for i := range c.groups {
		if c.groups[i].ID == id {
			c.groups[i] = g
		}
	}
	c.mu.Unlock()
	slog.Info("group lock changed", "group_id", id, "locked", lock)
	return g, nil
}

// GroupQR fetches the PNG voting QR code for a group.
func (c *Console) GroupQR(ctx context.Context, id int) ([]byte, error) {
	return c.client.FetchRaw(ctx, fmt.Sprintf("/groups/%d/qrcode", id))
}

// Member management

func (c *Console) Members(ctx context.Context, groupID int) ([]models.Member, error) {
	var members []models.Member
	err := c.client.Call(ctx, http.MethodGet, fmt.Sprintf("/groups/%d/members", groupID), nil, &members)
	return members, err
}

func (c *Console) AddMember(ctx context.Context, groupID int, req models.AddMemberRequest) (models.Member, error) {
	var m models.Member
	err := c.client.Call(ctx, http.MethodPost, fmt.Sprintf("/groups/%d/members", groupID), req, &m)
	return m, err
}

func (c *Console) DeleteMember(ctx context.Context, memberID int) error {
	return c.client.Call(ctx, http.MethodDelete, fmt.Sprintf("/members/%d", memberID), nil, nil)
}

// Voter management

func (c *Console) CreateVoter(ctx context.Context, req models.CreateVoterRequest) (models.Voter, error) {
	var v models.Voter
	if err := c.client.Call(ctx, http.MethodPost, "/voters", req, &v); err != nil {
		return models.Voter{}, err
	}
	c.mu.Lock()
	c.voters = append(c.voters, v)
	c.mu.Unlock()
	return v, nil
}

func (c *Console) UpdateVoter(ctx context.Context, id int, req models.CreateVoterRequest) (models.Voter, error) {
	var v models.Voter
	if err := c.client.Call(ctx, http.MethodPut, fmt.Sprintf("/voters/%d", id), req, &v); err != nil {
		return models.Voter{}, err
	}
	c.mu.Lock()
	for i := range c.voters {
		if c.voters[i].ID == id {
			c.voters[i] = v
		}
	}
	c.mu.Unlock()
	return v, nil
}

func (c *Console) DeleteVoter(ctx context.Context, id int) error {
	if err := c.client.Call(ctx, http.MethodDelete, fmt.Sprintf("/voters/%d", id), nil, nil); err != nil {
		return err
	}
	c.mu.Lock()
	for i := range c.voters {
		if c.voters[i].ID == id {
			c.voters = append(c.voters[:i], c.voters[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// DownloadVoterTemplate fetches the spreadsheet template for bulk import.
func (c *Console) DownloadVoterTemplate(ctx context.Context) ([]byte, error) {
	return c.client.FetchRaw(ctx, "/voters/template")
}

// ImportVoters uploads a filled-in spreadsheet. The result carries both the
// success count and per-row errors; a partially failed import is not an
// error here.
func (c *Console) ImportVoters(ctx context.Context, filename string, content io.Reader) (models.ImportResult, error) {
	var result models.ImportResult
	err := c.client.Upload(ctx, "/voters/import", "file", filename, content, &result)
	if err != nil {
		return models.ImportResult{}, err
	}
	return result, nil
}

// Role management

func (c *Console) CreateRole(ctx context.Context, name string) (models.Role, error) {
	var role models.Role
	if err := c.client.Call(ctx, http.MethodPost, "/roles", models.CreateRoleRequest{Name: name}, &role); err != nil {
		return models.Role{}, err
	}
	c.mu.Lock()
	c.roles = append(c.roles, role)
	c.mu.Unlock()
	return role, nil
}

func (c *Console) DeleteRole(ctx context.Context, id int) error {
	if err := c.client.Call(ctx, http.MethodDelete, fmt.Sprintf("/roles/%d", id), nil, nil); err != nil {
		return err
	}
	c.mu.Lock()
	for i := range c.roles {
		if c.roles[i].ID == id {
			c.roles = append(c.roles[:i], c.roles[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// Vote management

// VoteRow is a vote record decorated for the admin table: When is the
// humanized cast time ("3 minutes ago"), or the raw string if the server's
// timestamp is in a layout we do not know.
type VoteRow struct {
	models.Vote
	When string
}

// ListVotes fetches vote records, newest-first as the server returns them.
// groupID 0 means all groups.
func (c *Console) ListVotes(ctx context.Context, groupID int) ([]VoteRow, error) {
	path := "/votes"
	if groupID != 0 {
		path = fmt.Sprintf("/votes?group_id=%d", groupID)
	}
	var votes []models.Vote
	if err := c.client.Call(ctx, http.MethodGet, path, nil, &votes); err != nil {
		return nil, err
	}

	rows := make([]VoteRow, len(votes))
	for i, v := range votes {
		rows[i] = VoteRow{Vote: v, When: humanizeCreatedAt(v.CreatedAt)}
	}
	return rows, nil
}

func (c *Console) UpdateVote(ctx context.Context, id int, req models.UpdateVoteRequest) (models.Vote, error) {
	var v models.Vote
	err := c.client.Call(ctx, http.MethodPut, fmt.Sprintf("/votes/%d", id), req, &v)
	return v, err
}

func (c *Console) DeleteVote(ctx context.Context, id int) error {
	return c.client.Call(ctx, http.MethodDelete, fmt.Sprintf("/votes/%d", id), nil, nil)
}

// InitData asks the server to reset to seed data. Destructive; the caller
// confirms with the user first.
func (c *Console) InitData(ctx context.Context) error {
	return c.client.Call(ctx, http.MethodPost, "/init-data", nil, nil)
}

func humanizeCreatedAt(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return humanize.Time(t)
		}
	}
	return raw
}
