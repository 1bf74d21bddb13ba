// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package display holds the current-group selection and reconciles its vote
stats across three update sources with a fixed precedence:

 1. Full reload (ApplyReload) replaces the whole list; the previous current
    group is re-selected by id, not by object identity.
 2. Push delta (ApplyDelta) applies only when the delta's group id matches
    the current group; anything else is discarded as stale.
 3. Local optimistic update (ApplyLocalVote) applies this client's own vote
    result immediately, with the same replace-wholesale rule, so the voting
    screen does not wait on the push channel round trip.

The controller is the sole owner of the current-group reference. Ranking
derives the presentation ordering locally, recomputing every score from the
stats tuple.
*/
package display
