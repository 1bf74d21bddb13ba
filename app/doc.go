// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package app is the shell that holds the surfaces together: page navigation
with enter/leave hooks, the gated admin entry, the toast sink, and the
periodic group reload that keeps the display reconciled even without a
live push channel.

The App type doubles as the UI surface other subsystems are written
against: it implements authstate.UI (login prompt, admin presence, toasts)
and fullscreen.Pages (presentation and display page checks, forced
navigation to the display).
*/
package app
