// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package api wraps outbound calls to the evaluation server.

# Call Semantics

Client.Call issues a JSON request and decodes the response into out:

	var groups []models.Group
	err := client.Call(ctx, "GET", "/groups", nil, &groups)

Non-success statuses come back as *HTTPError carrying the server's error text
when it sent one. A 204 or empty body leaves out untouched. A body that fails
to parse as JSON is a malformed-response error, never silently defaulted.

# Authorization

A TokenSource supplies the bearer token; when it returns a non-empty string
the Authorization header is attached, otherwise it is omitted entirely. On a
401 the registered unauthorized handler fires exactly once per failing call
before the error is returned, so the caller can still abort its own render.
CallNoAuthHook exists for the logout request, which must not re-trigger the
handler on its own 401.

# Uploads and Raw Fetches

Upload sends multipart form data (no JSON content type; the multipart writer
sets the boundary). FetchRaw retrieves non-JSON resources such as the group
QR image.
*/
package api
