// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the CrowdJudge client.

CrowdJudge is the client side of a live group evaluation event: an audience
votes groups up or down from their phones, a big screen shows each group's
photos and running score, and an admin console manages groups, voters and
vote records.

# Running

The client requires the evaluation server's base URL:

	SERVER_URL=http://judge.local go run .

Or with flags:

	go run . -s http://judge.local

Arriving via a group's QR code runs the one-shot voting flow:

	go run . -s http://judge.local -g 5
	go run . -s http://judge.local -u "http://judge.local/mobile?g=5"

Without a group id the client runs the stage surfaces: the photo carousel,
the live score display and the periodic group reload.

# Configuration

Required settings:

  - SERVER_URL (-s): evaluation server base URL

Optional settings:

  - PUSH_URL (-ws): live update channel (derived from SERVER_URL)
  - STATE_PATH (-d): local state database (default: crowdjudge.db)
  - GROUP_ID (-g): group to open the voting flow for
  - CAROUSEL_INTERVAL (-i): photo rotation period in seconds (default: 5)

# Architecture

The client uses small packages wired together with dependency injection:

  - api: HTTP client with bearer attach and unauthorized hook
  - authstate: admin token lifecycle (restore, prompt-once, logout)
  - session: the voter's verify-then-vote state machine
  - display: group list reconciliation and the single current group
  - realtime: websocket push channel for live vote updates
  - carousel: photo rotation with a single owned timer
  - fullscreen: stage mode and scale computation
  - admin: management console operations
  - app: navigation shell, reload loop, toast sink
  - store: persisted client state on SQLite
*/
package main
