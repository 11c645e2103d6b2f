// Package remote talks to the backend notification row store. All calls
// are best-effort: local state is authoritative and the reconciler
// retries whatever fails here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrClientNotConfigured indicates the remote base URL was never set.
var ErrClientNotConfigured = errors.New("remote client is not configured")

const defaultRequestTimeout = 10 * time.Second

// Row is the remote representation of one notification. Scheduling
// details travel inside Data; the backend stores them opaquely.
type Row struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data,omitempty"`
}

// Client calls the backend notification endpoints.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewClient constructs a remote notification client. A nil httpClient
// gets a default with a request timeout.
func NewClient(baseURL string, authToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		authToken:  strings.TrimSpace(authToken),
		httpClient: httpClient,
	}
}

// UpsertNotification writes one full remote row keyed by id.
func (c *Client) UpsertNotification(ctx context.Context, row Row) error {
	if row.ID == "" {
		return fmt.Errorf("notification id is required")
	}
	if row.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	return c.do(ctx, http.MethodPut, "/v1/notifications/"+url.PathEscape(row.ID), row)
}

// MarkRead acknowledges one remote row.
func (c *Client) MarkRead(ctx context.Context, userID string, notificationID string) error {
	if notificationID == "" {
		return fmt.Errorf("notification id is required")
	}
	return c.do(ctx, http.MethodPost, "/v1/notifications/"+url.PathEscape(notificationID)+"/read", map[string]string{
		"user_id": userID,
	})
}

// MarkAllRead acknowledges every remote row for the user.
func (c *Client) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return c.do(ctx, http.MethodPost, "/v1/notifications/read-all", map[string]string{
		"user_id": userID,
	})
}

// DeleteNotification removes one remote row.
func (c *Client) DeleteNotification(ctx context.Context, userID string, notificationID string) error {
	if notificationID == "" {
		return fmt.Errorf("notification id is required")
	}
	return c.do(ctx, http.MethodDelete, "/v1/notifications/"+url.PathEscape(notificationID)+"?user_id="+url.QueryEscape(userID), nil)
}

// CountUnread reads the remote unread count, used to cross-check the
// local badge count.
func (c *Client) CountUnread(ctx context.Context, userID string) (int, error) {
	if c == nil || c.baseURL == "" {
		return 0, ErrClientNotConfigured
	}
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/notifications/unread-count?user_id="+url.QueryEscape(userID), nil)
	if err != nil {
		return 0, fmt.Errorf("build unread-count request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("unread-count request: %w", err)
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unread-count status %d", resp.StatusCode)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode unread-count response: %w", err)
	}
	return payload.Count, nil
}

// UpdateActionStatus mutates the external action entity a completed
// notification references. Satisfies the router's action updater.
func (c *Client) UpdateActionStatus(ctx context.Context, actionID string, status string) error {
	if actionID == "" {
		return fmt.Errorf("action id is required")
	}
	if status == "" {
		return fmt.Errorf("status is required")
	}
	return c.do(ctx, http.MethodPatch, "/v1/actions/"+url.PathEscape(actionID), map[string]string{
		"status": status,
	})
}

func (c *Client) do(ctx context.Context, method string, path string, body any) error {
	if c == nil || c.baseURL == "" {
		return ErrClientNotConfigured
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s status %d", method, path, resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// drainAndClose lets the transport reuse the connection.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
