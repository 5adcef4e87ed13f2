package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"compliance-feed/backend/app/dto"
)

// Client talks to the backend HTTP API on behalf of the console.
type Client struct {
	BaseURL string
	Token   string
	// Trusted is reported at login; untrusted callers always get redacted output.
	Trusted bool
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(dto.LoginRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	var tok dto.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	c.Token, c.Trusted = tok.AccessToken, tok.Trusted
	return nil
}

// CommandStatus returns nil when the backend has no such command.
func (c *Client) CommandStatus(ctx context.Context, commandID string, unredacted bool) (*dto.CommandStatusResponse, error) {
	path := "/debug/status/commandid/" + url.PathEscape(strings.TrimSpace(commandID))
	if unredacted {
		path += "?redact=false"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		var out dto.CommandStatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode status: %w", err)
		}
		return &out, nil
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, apiError(resp)
	}
}

func apiError(resp *http.Response) error {
	var e dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, e.Error)
	}
	return fmt.Errorf("%s", resp.Status)
}
