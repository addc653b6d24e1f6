// Package client is the Go client for the scoring coordinator: a thin HTTP
// wrapper plus a poller implementing the synchronization contract every UI
// follows (fixed-interval snapshot polling, whole-state replacement,
// immediate re-fetch after a mutation, keep-last-known on failure).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pj950/live-scoring/api/models"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx response from the coordinator.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// State fetches the full snapshot.
func (c *Client) State(ctx context.Context) (*models.StateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/state", nil)
	if err != nil {
		return nil, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, c.apiError(res)
	}

	var state models.StateResponse
	if err := json.NewDecoder(res.Body).Decode(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Do applies one named mutation with its payload.
func (c *Client) Do(ctx context.Context, action string, payload interface{}) error {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(models.ActionRequest{
		Action:  action,
		Payload: rawPayload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/state", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return c.apiError(res)
	}
	return nil
}

func (c *Client) apiError(res *http.Response) error {
	var body models.ErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.Error == "" {
		body.Error = res.Status
	}
	return &APIError{StatusCode: res.StatusCode, Message: body.Error}
}
