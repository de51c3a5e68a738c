// Package ai streams chat completions from an OpenAI-compatible upstream.
package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/excing/credits-starter-kit/internal/config"
	"github.com/tidwall/gjson"
)

// Usage is the token consumption reported by the upstream's terminal chunk.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Message is one chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a chat client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		// Streaming responses stay open for the generation duration; the
		// per-request context carries the deadline instead of the client.
		httpClient: &http.Client{Timeout: 0},
	}
}

// streamRequest is the upstream chat completion request payload.
type streamRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	Stream        bool           `json:"stream"`
	StreamOptions map[string]any `json:"stream_options,omitempty"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
}

// StreamChat forwards a chat completion stream to w, flushing after every
// event, and returns the token usage parsed from the terminal SSE chunk.
// A write failure to w aborts the copy and is returned to the caller; usage
// observed before the failure is still reported.
func (c *Client) StreamChat(ctx context.Context, messages []Message, w io.Writer, flush func()) (Usage, error) {
	var usage Usage

	payload, errMarshal := json.Marshal(streamRequest{
		Model:         c.model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: map[string]any{"include_usage": true},
		MaxTokens:     4096,
	})
	if errMarshal != nil {
		return usage, fmt.Errorf("ai: marshal request: %w", errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if errReq != nil {
		return usage, fmt.Errorf("ai: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return usage, fmt.Errorf("ai: upstream request: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return usage, fmt.Errorf("ai: upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if data, ok := strings.CutPrefix(line, "data: "); ok {
			data = strings.TrimSpace(data)
			if data != "" && data != "[DONE]" {
				if result := gjson.Get(data, "usage"); result.Exists() && result.IsObject() {
					usage.PromptTokens = result.Get("prompt_tokens").Int()
					usage.CompletionTokens = result.Get("completion_tokens").Int()
					usage.TotalTokens = result.Get("total_tokens").Int()
				}
			}
		}

		if _, errWrite := io.WriteString(w, line+"\n"); errWrite != nil {
			return usage, fmt.Errorf("ai: forward chunk: %w", errWrite)
		}
		if flush != nil {
			flush()
		}
	}
	if errScan := scanner.Err(); errScan != nil {
		return usage, fmt.Errorf("ai: read upstream stream: %w", errScan)
	}
	return usage, nil
}
