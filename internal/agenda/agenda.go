// Package agenda is a thin client for a generative-text API used to draft
// meeting agenda text from a short prompt. The dashboard treats the result
// as opaque text; no retries, no streaming.
package agenda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	appLog "meetcal/internal/log"
)

// Client posts prompts to a single completion-style endpoint.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewClient builds an agenda client. An empty endpoint disables the feature.
func NewClient(endpoint, apiKey, model string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool { return c.endpoint != "" }

type generateRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Suggest asks the text API for a draft agenda given a meeting title and
// optional extra notes.
func (c *Client) Suggest(ctx context.Context, title, notes string) (string, error) {
	if !c.Configured() {
		return "", errors.New("agenda: client not configured")
	}
	if strings.TrimSpace(title) == "" {
		return "", errors.New("agenda: empty meeting title")
	}

	prompt := "Write a concise meeting agenda for a meeting titled " + strconv.Quote(title)
	if notes != "" {
		prompt += ". Additional context: " + notes
	}

	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	appLog.Info("agenda: suggestion request", "model", c.model, "title", title)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("agenda: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("agenda: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("agenda: decode response: %w", err)
	}
	if gr.Error != "" {
		return "", fmt.Errorf("agenda: api error: %s", gr.Error)
	}
	if strings.TrimSpace(gr.Text) == "" {
		return "", errors.New("agenda: api returned empty text")
	}
	return gr.Text, nil
}
