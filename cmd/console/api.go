package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/text-rpg/internal/handlers"
	"github.com/jwebster45206/text-rpg/pkg/chat"
	"github.com/jwebster45206/text-rpg/pkg/state"
)

// apiClient talks to the game API on behalf of the console.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, client *http.Client) *apiClient {
	return &apiClient{baseURL: baseURL, http: client}
}

func (c *apiClient) testConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	// A degraded store still lets the game run without saves.
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

func (c *apiClient) createSession(ctx context.Context) (*handlers.SessionCreatedResponse, error) {
	var out handlers.SessionCreatedResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, http.StatusCreated, &out); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &out, nil
}

func (c *apiClient) sendCommand(ctx context.Context, id uuid.UUID, command string) (*handlers.CommandResponse, error) {
	req := chat.CommandRequest{SessionID: id, Command: command}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out handlers.CommandResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/sessions/%s/commands", id), req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) getStatus(ctx context.Context, id uuid.UUID) (*state.Status, error) {
	var out state.Status
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/sessions/%s", id), nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &out, nil
}

func (c *apiClient) endSession(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/sessions/%s", id), nil, http.StatusNoContent, nil)
}

// do sends body as JSON and decodes a response with the wanted status into
// out. Other statuses are turned into errors carrying the API's message.
func (c *apiClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
