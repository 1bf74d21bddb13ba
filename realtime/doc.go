// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime implements the client side of the live update channel.

The channel is a persistent websocket carrying JSON envelopes:

	{"event": "vote_updated", "group_id": 3, "stats": {"likes": 5, "dislikes": 1}}

Server → client: vote_updated. Client → server: join_group (subscribe to a
group) and vote_update (broadcast hint after a successful vote).

Events are dispatched to the Handler synchronously from a single read loop,
in the order the transport delivered them. Delivery guarantees beyond that
are the server's business; late or irrelevant deltas are filtered by the
display controller's current-group check, not here.

The channel does not reconnect. A dropped connection logs a warning and the
client degrades to periodic full reloads.
*/
package realtime
