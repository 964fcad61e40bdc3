package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golazo/internal/config"
)

// ChatClient talks to OpenAI-compatible chat-completion APIs. When the
// primary backend fails the request is replayed against the fallback.
type ChatClient struct {
	primary      backend
	fallback     backend
	systemPrompt string
	httpClient   *http.Client
	logger       *slog.Logger
}

type backend struct {
	endpoint string
	model    string
	apiKey   string
}

// NewChatClient builds a client from configuration.
func NewChatClient(cfg config.ChatConfig, logger *slog.Logger) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &ChatClient{
		primary:      backend{endpoint: cfg.Endpoint, model: cfg.Model, apiKey: cfg.APIKey},
		fallback:     backend{endpoint: cfg.FallbackEndpoint, model: cfg.FallbackModel, apiKey: cfg.FallbackAPIKey},
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// Complete sends the prompt and returns the raw assistant message.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := c.complete(ctx, c.primary, prompt)
	if err == nil {
		return text, nil
	}

	if c.fallback.endpoint == "" || c.fallback.apiKey == "" {
		return "", err
	}

	if c.logger != nil {
		c.logger.Warn("primary chat backend failed, trying fallback", "error", err)
	}
	return c.complete(ctx, c.fallback, prompt)
}

func (c *ChatClient) complete(ctx context.Context, b backend, prompt string) (string, error) {
	if b.apiKey == "" || b.endpoint == "" || b.model == "" {
		return "", fmt.Errorf("chat backend misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": b.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.7,
		"max_tokens":  2048,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "Ești un asistent care rescrie articole sportive."
	}
	return prompt
}
