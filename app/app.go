// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/crowdjudge/crowdjudge/api"
	"github.com/crowdjudge/crowdjudge/authstate"
	"github.com/crowdjudge/crowdjudge/display"
	"github.com/crowdjudge/crowdjudge/models"
	"github.com/crowdjudge/crowdjudge/store"
)

// Page names the top-level surfaces.
type Page string

const (
	PageGroups  Page = "groups"
	PageDisplay Page = "display"
	PageRanking Page = "ranking"
	PageMobile  Page = "mobile"
	PageAdmin   Page = "admin"
)

// App owns navigation and the periodic group reload. It is the UI surface
// both the auth lifecycle and the fullscreen controller talk to.
type App struct {
	mu          sync.Mutex
	page        Page
	loginPrompt bool
	enterHooks  map[Page][]func()
	leaveHooks  map[Page][]func()
	onToast     func(msg string)

	client  *api.Client
	display *display.Controller
	store   *store.Store // optional
	auth    *authstate.Lifecycle
}

// New builds the app shell. store may be nil when no local state path is
// configured.
func New(client *api.Client, disp *display.Controller, st *store.Store) *App {
	return &App{
		page:       PageGroups,
		enterHooks: make(map[Page][]func()),
		leaveHooks: make(map[Page][]func()),
		client:     client,
		display:    disp,
		store:      st,
	}
}

// BindAuth attaches the auth lifecycle. Separate from New because the
// lifecycle itself is constructed with this App as its UI.
func (a *App) BindAuth(auth *authstate.Lifecycle) {
	a.mu.Lock()
	a.auth = auth
	a.mu.Unlock()
}

// OnEnter registers a hook that runs whenever the page becomes current.
func (a *App) OnEnter(page Page, fn func()) {
	a.mu.Lock()
	a.enterHooks[page] = append(a.enterHooks[page], fn)
	a.mu.Unlock()
}

// OnLeave registers a hook that runs whenever the page stops being current.
func (a *App) OnLeave(page Page, fn func()) {
	a.mu.Lock()
	a.leaveHooks[page] = append(a.leaveHooks[page], fn)
	a.mu.Unlock()
}

// OnToast registers the toast sink.
func (a *App) OnToast(fn func(msg string)) {
	a.mu.Lock()
	a.onToast = fn
	a.mu.Unlock()
}

func (a *App) CurrentPage() Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

// Navigate switches to the given page. The admin page is gated: without a
// token the login prompt opens instead and the navigation replays after a
// successful login.
func (a *App) Navigate(page Page) {
	if page == PageAdmin {
		a.mu.Lock()
		auth := a.auth
		a.mu.Unlock()
		if auth != nil {
			auth.RequireAdmin(func() { a.setPage(PageAdmin) })
			return
		}
	}
	a.setPage(page)
}

func (a *App) setPage(page Page) {
	a.mu.Lock()
	prev := a.page
	if prev == page {
		a.mu.Unlock()
		return
	}
	a.page = page
	leave := append([]func(){}, a.leaveHooks[prev]...)
	enter := append([]func(){}, a.enterHooks[page]...)
	a.mu.Unlock()

	slog.Info("page changed", "from", string(prev), "to", string(page))
	for _, fn := range leave {
		fn()
	}
	for _, fn := range enter {
		fn()
	}
}

// Notify pushes a user-facing toast.
func (a *App) Notify(msg string) {
	a.mu.Lock()
	sink := a.onToast
	a.mu.Unlock()
	slog.Info("toast", "message", msg)
	if sink != nil {
		sink(msg)
	}
}

// authstate.UI

func (a *App) AdminActive() bool {
	return a.CurrentPage() == PageAdmin
}

func (a *App) ShowLoginPrompt() {
	a.mu.Lock()
	a.loginPrompt = true
	a.mu.Unlock()
}

func (a *App) CloseLoginPrompt() {
	a.mu.Lock()
	a.loginPrompt = false
	a.mu.Unlock()
}

func (a *App) LoginPromptVisible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loginPrompt
}

func (a *App) LeaveAdmin() {
	a.setPage(PageGroups)
}

// fullscreen.Pages

// PresentationActive reports whether a stage surface is showing.
func (a *App) PresentationActive() bool {
	p := a.CurrentPage()
	return p == PageDisplay || p == PageRanking
}

func (a *App) DisplayActive() bool {
	return a.CurrentPage() == PageDisplay
}

func (a *App) ShowDisplay() {
	a.setPage(PageDisplay)
}

// Data flow

// Reload fetches the group list and reconciles the display controller.
// On success the snapshot is persisted for offline startup.
func (a *App) Reload(ctx context.Context) error {
	var groups []models.Group
	if err := a.client.Call(ctx, http.MethodGet, "/groups", nil, &groups); err != nil {
		return fmt.Errorf("reloading groups: %w", err)
	}
	a.display.ApplyReload(groups)

	if a.store != nil {
		if err := a.store.SaveGroups(groups); err != nil {
			slog.Warn("persisting group snapshot", "error", err)
		}
	}
	return nil
}

// RestoreFromCache seeds the display controller with the last persisted
// snapshot, for startup while the server is unreachable. Reports whether
// anything was restored.
func (a *App) RestoreFromCache() bool {
	if a.store == nil {
		return false
	}
	groups, err := a.store.CachedGroups()
	if err != nil || len(groups) == 0 {
		return false
	}
	a.display.ApplyReload(groups)
	slog.Info("group snapshot restored from cache", "groups", len(groups))
	return true
}

// RunReloadLoop reloads on the given period until ctx is done. Failures
// are logged and the loop keeps going; live data resumes on the next tick.
func (a *App) RunReloadLoop(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Reload(ctx); err != nil {
				slog.Warn("periodic reload failed", "error", err)
			}
		}
	}
}

// FetchMembers loads a group's member list. The fresh result set is
// dropped when the current group changed while the request was in flight.
func (a *App) FetchMembers(ctx context.Context, groupID int) ([]models.Member, bool, error) {
	var members []models.Member
	path := fmt.Sprintf("/groups/%d/members", groupID)
	if err := a.client.Call(ctx, http.MethodGet, path, nil, &members); err != nil {
		return nil, false, err
	}
	if a.display.CurrentID() != groupID {
		// Superseded by a newer selection.
		return nil, false, nil
	}
	return members, true, nil
}

// FetchRanking loads the final standings for the reveal page.
func (a *App) FetchRanking(ctx context.Context) ([]models.RankingEntry, error) {
	var entries []models.RankingEntry
	if err := a.client.Call(ctx, http.MethodGet, "/ranking", nil, &entries); err != nil {
		return nil, fmt.Errorf("loading ranking: %w", err)
	}
	return entries, nil
}

// RefreshGroupStats fetches a single group's live tally, for surfaces that
// poll instead of subscribing.
func (a *App) RefreshGroupStats(ctx context.Context, groupID int) (models.Stats, error) {
	var stats models.Stats
	path := fmt.Sprintf("/groups/%d/stats", groupID)
	if err := a.client.Call(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return models.Stats{}, err
	}
	a.display.ApplyDelta(groupID, stats)
	return stats, nil
}
