// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package admin implements the management console: CRUD over groups, voters,
roles, members and vote records, group locking, the voter spreadsheet
import pipeline and the data reset.

Every mutation is server-first. The console keeps local caches only so the
tables can render without a round trip; a cache miss on lookup is reported
with the same user-facing wording the server uses, since it almost always
means another admin changed the data underneath us.
*/
package admin
