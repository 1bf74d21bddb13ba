// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session tracks an anonymous voter through the mobile evaluation flow
for one group:

	AwaitingIdentity → AwaitingVote → Complete

VerifyIdentity validates both fields client-side before touching the network,
then caches the server's voter id and weight; the weight is authoritative
display data. Cast submits the vote, merges the returned stats into the
current group immediately (the same replace rule the push delta uses) and
broadcasts a vote_update hint so other clients converge without a reload.
Return discards the identity; a new vote always re-verifies.

One-vote-per-voter-per-group enforcement is the server's job; its rejection
message passes through verbatim.
*/
package session
