// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crowdjudge/crowdjudge/models"
)

// HTTPError is returned for any non-success response status. Message carries
// the server-provided error text when present, else a generic status line.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is an HTTPError with status 401.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusUnauthorized
}

// TokenSource supplies the current bearer token; an empty string means
// anonymous and no Authorization header is attached.
type TokenSource interface {
	Token() string
}

// Client wraps calls to the evaluation server's REST API.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource

	// onUnauthorized fires exactly once per failing call when the server
	// answers 401, before the error is returned to the caller.
	onUnauthorized func()
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SetTokenSource wires the auth lifecycle in as the bearer token supplier.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SetUnauthorizedHandler registers the auth lifecycle's 401 handler.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// Call performs a JSON request against the API. A nil body sends no payload;
// a nil out discards the response body. A 204 (or empty) response leaves out
// untouched. Non-success statuses return *HTTPError; a 401 additionally fires
// the unauthorized handler before returning.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, true)
}

// CallNoAuthHook is Call without the 401 side effect. The auth lifecycle uses
// it for the logout request, whose own 401 must not reopen the login prompt.
func (c *Client) CallNoAuthHook(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, fireAuthHook bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.roundTrip(req, out, fireAuthHook)
}

// Upload performs a multipart file upload. No JSON content type is set; the
// multipart writer provides the boundary header.
func (c *Client) Upload(ctx context.Context, path, field, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.roundTrip(req, out, true)
}

// FetchRaw retrieves a non-JSON resource (e.g. the group QR image or the
// voter import template) as raw bytes.
func (c *Client) FetchRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network or server error: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, true); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("network or server error: %w", err)
	}
	return data, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
}

func (c *Client) roundTrip(req *http.Request, out any, fireAuthHook bool) error {
	c.authorize(req)
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		slog.Warn("api request failed", "method", req.Method, "path", req.URL.Path, "request_id", requestID, "error", err)
		return fmt.Errorf("network or server error: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, fireAuthHook); err != nil {
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("network or server error: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Error("malformed api response", "path", req.URL.Path, "request_id", requestID, "error", err)
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

// checkStatus turns non-2xx responses into *HTTPError, firing the
// unauthorized handler on 401 when enabled.
func (c *Client) checkStatus(resp *http.Response, fireAuthHook bool) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := fmt.Sprintf("HTTP %d", resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	if err == nil && len(data) > 0 {
		var er models.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			message = er.Error
		}
	}

	if resp.StatusCode == http.StatusUnauthorized && fireAuthHook && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	return &HTTPError{Status: resp.StatusCode, Message: message}
}
