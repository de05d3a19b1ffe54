// Package http is a typed client for the voice agent REST API. It lets
// out-of-process tools, such as the console interview, read records and write
// interview results through the server instead of the database.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-agent/internal/storage"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Is lets 404 and 400 responses match the storage sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case storage.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case storage.ErrConstraint:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the API served at baseURL, e.g. http://localhost:8080.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) ListCandidates(ctx context.Context) ([]*storage.Candidate, error) {
	var candidates []*storage.Candidate
	if err := c.do(ctx, http.MethodGet, "/api/candidates", nil, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (c *Client) GetCandidate(ctx context.Context, id int64) (*storage.Candidate, error) {
	var candidate storage.Candidate
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/candidates/%d", id), nil, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (c *Client) UpdateCandidate(ctx context.Context, id int64, patch storage.CandidatePatch) (*storage.Candidate, error) {
	var candidate storage.Candidate
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/candidates/%d", id), patch, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (c *Client) GetJob(ctx context.Context, id int64) (*storage.Job, error) {
	var job storage.Job
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/jobs/%d", id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateConversation posts conversation and fills in its id and created_at.
func (c *Client) CreateConversation(ctx context.Context, conversation *storage.Conversation) error {
	return c.do(ctx, http.MethodPost, "/api/conversations", conversation, conversation)
}

// CreateAppointment posts appointment and fills in its id and status.
func (c *Client) CreateAppointment(ctx context.Context, appointment *storage.Appointment) error {
	return c.do(ctx, http.MethodPost, "/api/appointments", appointment, appointment)
}

// Health reports whether the server and its database are up.
func (c *Client) Health(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("server unhealthy: %w", err)
	}
	return err
}
