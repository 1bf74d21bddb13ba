// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package authstate

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/crowdjudge/crowdjudge/api"
	"github.com/crowdjudge/crowdjudge/models"
)

// TokenStore persists the admin token across launches.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// UI is the surface the lifecycle drives: the login prompt, the admin
// console and the toast sink.
type UI interface {
	AdminActive() bool
	ShowLoginPrompt()
	CloseLoginPrompt()
	LeaveAdmin()
	Notify(msg string)
}

// Remote is the authentication slice of the server API.
type Remote interface {
	Login(ctx context.Context, username, password string) (string, error)
	// Logout invalidates the session server-side. Implementations must not
	// route a 401 back into the unauthorized handler.
	Logout(ctx context.Context) error
}

// Lifecycle owns the admin bearer token: restore on launch, prompt on 401,
// persist on login, clear on logout. It implements api.TokenSource.
type Lifecycle struct {
	mu            sync.Mutex
	token         string
	promptVisible bool
	loggingOut    bool
	pending       func() // navigation replayed after a gated login

	store  TokenStore
	remote Remote
	ui     UI
}

func NewLifecycle(store TokenStore, remote Remote, ui UI) *Lifecycle {
	return &Lifecycle{store: store, remote: remote, ui: ui}
}

// Restore loads a previously persisted token, if any. A missing token is
// not an error: the user is simply anonymous.
func (l *Lifecycle) Restore() error {
	token, err := l.store.Token()
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	return nil
}

// Token returns the current bearer token, or "" when anonymous.
func (l *Lifecycle) Token() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.token
}

// Authenticated reports whether a token is held. It says nothing about
// server-side validity; the next 401 settles that.
func (l *Lifecycle) Authenticated() bool {
	return l.Token() != ""
}

// HandleUnauthorized reacts to a 401 from any admin call: the token is
// cleared unconditionally, and the login prompt is shown at most once, only
// while an admin surface is active. Wired as the api.Client unauthorized
// handler.
func (l *Lifecycle) HandleUnauthorized() {
	l.mu.Lock()
	l.token = ""
	show := !l.loggingOut && !l.promptVisible && l.ui.AdminActive()
	if show {
		l.promptVisible = true
	}
	l.mu.Unlock()

	if err := l.store.ClearToken(); err != nil {
		slog.Warn("clearing stored token", "error", err)
	}
	if show {
		l.ui.ShowLoginPrompt()
	}
}

// Login exchanges credentials for a token, persists it, closes the prompt
// and replays any navigation that was blocked behind it.
func (l *Lifecycle) Login(ctx context.Context, username, password string) error {
	token, err := l.remote.Login(ctx, username, password)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.token = token
	l.promptVisible = false
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()

	if err := l.store.SetToken(token); err != nil {
		slog.Warn("persisting token", "error", err)
	}
	l.ui.CloseLoginPrompt()
	if pending != nil {
		pending()
	}
	slog.Info("admin logged in")
	return nil
}

// Logout ends the admin session. The server call is best-effort: a failure
// is surfaced as a toast but local state is cleared regardless, and the
// admin console is left if it is showing.
func (l *Lifecycle) Logout(ctx context.Context) {
	l.mu.Lock()
	l.loggingOut = true
	l.mu.Unlock()

	if err := l.remote.Logout(ctx); err != nil {
		slog.Warn("remote logout failed", "error", err)
		// A 401 here just means the token was already dead; clearing it is
		// the whole point, so the user hears nothing.
		if !api.IsUnauthorized(err) {
			l.ui.Notify("退出登录失败，已清除本地登录状态")
		}
	}

	l.mu.Lock()
	l.token = ""
	l.promptVisible = false
	l.pending = nil
	l.loggingOut = false
	l.mu.Unlock()

	if err := l.store.ClearToken(); err != nil {
		slog.Warn("clearing stored token", "error", err)
	}
	if l.ui.AdminActive() {
		l.ui.LeaveAdmin()
	}
	slog.Info("admin logged out")
}

// RequireAdmin gates navigation to an admin surface. With a token held the
// navigation runs immediately; otherwise the login prompt is shown and the
// navigation is replayed once login succeeds.
func (l *Lifecycle) RequireAdmin(navigate func()) {
	l.mu.Lock()
	if l.token != "" {
		l.mu.Unlock()
		navigate()
		return
	}
	l.pending = navigate
	show := !l.promptVisible
	if show {
		l.promptVisible = true
	}
	l.mu.Unlock()

	if show {
		l.ui.ShowLoginPrompt()
	}
}

// DismissPrompt cancels a pending login prompt without authenticating.
func (l *Lifecycle) DismissPrompt() {
	l.mu.Lock()
	l.promptVisible = false
	l.pending = nil
	l.mu.Unlock()
	l.ui.CloseLoginPrompt()
}

// APIRemote implements Remote over the HTTP client. Logout uses the
// no-hook call path so an expired token cannot reopen the login prompt
// mid-logout.
type APIRemote struct {
	Client *api.Client
}

func (r APIRemote) Login(ctx context.Context, username, password string) (string, error) {
	var resp models.LoginResponse
	err := r.Client.CallNoAuthHook(ctx, http.MethodPost, "/admin/login", models.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (r APIRemote) Logout(ctx context.Context) error {
	return r.Client.CallNoAuthHook(ctx, http.MethodPost, "/admin/logout", nil, nil)
}
