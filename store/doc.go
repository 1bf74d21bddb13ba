// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists the client's durable state in a local SQLite database.

Two things survive restarts:

  - the admin bearer token, under the fixed key "admin_token" in the kv
    table (absence of the row means unauthenticated)
  - the last fetched group list, so a display client can render something
    before its first reload completes

The store is the single source of truth for the persisted token; the auth
lifecycle owns all writes to it.
*/
package store
