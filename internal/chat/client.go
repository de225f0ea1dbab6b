package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultAPIBase = "https://slack.com/api"

// Config holds configuration for the chat client.
type Config struct {
	BotToken string
	BaseURL  string        // override for tests
	Timeout  time.Duration // default: 30s
}

// Client calls the chat platform's web API.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a chat client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Message is one message in a thread.
type Message struct {
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
	User     string `json:"user"`
	BotID    string `json:"bot_id"`
}

// apiEnvelope is the common ok/error wrapper on web API responses.
type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostMessage posts text into a channel, threaded when threadTS is non-empty.
func (c *Client) PostMessage(ctx context.Context, channel, threadTS, text string) error {
	body := map[string]interface{}{
		"channel": channel,
		"text":    text,
	}
	if threadTS != "" {
		body["thread_ts"] = threadTS
	}

	var resp apiEnvelope
	if err := c.post(ctx, "/chat.postMessage", body, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("chat: postMessage failed: %s", resp.Error)
	}
	return nil
}

// repliesResponse is the envelope for a thread fetch.
type repliesResponse struct {
	apiEnvelope
	Messages []Message `json:"messages"`
}

// ThreadReplies fetches the full reply list of a thread. The first message
// is the thread's root.
func (c *Client) ThreadReplies(ctx context.Context, channel, threadTS string) ([]Message, error) {
	params := url.Values{}
	params.Set("channel", channel)
	params.Set("ts", threadTS)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/conversations.replies?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.BotToken)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat: replies request failed: %w", err)
	}
	defer httpResp.Body.Close()

	var resp repliesResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("chat: failed to decode replies: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("chat: replies fetch failed: %s", resp.Error)
	}
	return resp.Messages, nil
}

// openResponse is the envelope for opening a direct conversation.
type openResponse struct {
	apiEnvelope
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

// OpenDirectConversation opens (or reuses) a direct conversation with a
// user and returns its channel id.
func (c *Client) OpenDirectConversation(ctx context.Context, userID string) (string, error) {
	var resp openResponse
	if err := c.post(ctx, "/conversations.open", map[string]interface{}{"users": userID}, &resp); err != nil {
		return "", err
	}
	if !resp.OK || resp.Channel.ID == "" {
		return "", fmt.Errorf("chat: failed to open direct conversation: %s", resp.Error)
	}
	return resp.Channel.ID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("chat: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("chat: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.BotToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat: request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("chat: failed to decode response: %w", err)
	}
	return nil
}
