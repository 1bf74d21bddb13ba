// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package authstate owns the admin bearer token lifecycle.

The token is restored from the local store on launch and attached to every
admin request by the HTTP client. When the server answers 401 the lifecycle
clears the token and, if an admin surface is showing, raises the login
prompt exactly once no matter how many calls failed in the burst. Navigation
to admin surfaces is gated: without a token the prompt is shown and the
navigation replays after a successful login.

Logout is deliberately lopsided. The server call is best-effort and its own
failure, including a 401 from an already expired token, never reopens the
prompt; local state is cleared unconditionally either way.
*/
package authstate
