// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain and wire types shared across the client.

# Domain Types

Group, Role, Member, Voter and Vote mirror the evaluation server's JSON
representations. Stats carries a group's {likes, dislikes} tally; the headline
score is deliberately not a field — it is derived everywhere via Stats.Score
so no renderer can drift from likes − dislikes.

# Request/Response Types

Each REST operation has a typed request and response struct with json tags
matching the server contract (verify-voter, vote, admin login, CRUD, import).

# Push Channel

PushEnvelope is the single frame shape for the live update channel, covering
vote_updated (server → client), join_group and vote_update (client → server).
*/
package models
