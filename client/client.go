// Package client talks to an OpenAI-compatible inference server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
)

const (
	defaultModel           = "gpt-3.5-turbo"
	defaultChatMaxTokens   = 2048
	defaultChatTemperature = 0.7
	defaultCompleteTokens  = 100
	defaultCompleteTemp    = 0.3
	defaultTimeout         = 60 * time.Second
	probeTimeout           = 5 * time.Second
	maxResponseBody        = 8 << 20
)

var defaultStop = []string{"\n\n", "<|endoftext|>"}

// Settings are the connection parameters of a Client.
// Zero values fall back to the built-in defaults.
type Settings struct {
	Endpoint        string
	APIKey          string
	ChatModel       string
	CompletionModel string
	MaxTokens       int
	Temperature     float64
	Timeout         time.Duration
}

// SettingsFromConfig resolves client settings from cfg and the environment.
func SettingsFromConfig(cfg *localai.Config) Settings {
	s := Settings{
		Endpoint:        localai.ResolveEndpoint(cfg),
		APIKey:          localai.ResolveAPIKey(cfg),
		ChatModel:       localai.ResolveChatModel(cfg),
		CompletionModel: localai.ResolveCompletionModel(cfg),
		Timeout:         localai.RequestTimeout(cfg),
	}
	if cfg != nil {
		s.MaxTokens = cfg.Chat.MaxTokens
		s.Temperature = cfg.Chat.Temperature
	}
	return s
}

// Client is an immutable handle on one server configuration.
// Build a new Client instead of changing an existing one.
type Client struct {
	settings  Settings
	transport *http.Transport
	http      *http.Client
	logger    *zap.Logger
}

// New creates a client for s.
func New(s Settings, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: probeTimeout, KeepAlive: 30 * time.Second}).DialContext
	// Streams run as long as the server keeps sending; only the wait for
	// response headers is bounded here. Sync calls add a context deadline.
	transport.ResponseHeaderTimeout = s.Timeout

	return &Client{
		settings:  s,
		transport: transport,
		http:      &http.Client{Transport: transport},
		logger:    logger.With(zap.String("endpoint", s.Endpoint)),
	}
}

// Endpoint returns the server base address the client sends to.
func (c *Client) Endpoint() string { return c.settings.Endpoint }

// Settings returns the parameters the client was built with.
func (c *Client) Settings() Settings { return c.settings }

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

func (c *Client) chatModel() string {
	if c.settings.ChatModel != "" {
		return c.settings.ChatModel
	}
	return defaultModel
}

func (c *Client) chatRequest(messages []localai.ChatMessage, stream bool) chatCompletionsRequest {
	maxTokens := c.settings.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultChatMaxTokens
	}
	temperature := c.settings.Temperature
	if temperature == 0 {
		temperature = defaultChatTemperature
	}
	return chatCompletionsRequest{
		Model:       c.chatModel(),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      stream,
	}
}

// Chat sends messages and returns the first choice's message content.
func (c *Client) Chat(ctx context.Context, messages []localai.ChatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	var result chatCompletionsResponse
	if err := c.postJSON(ctx, "request", "/v1/chat/completions", c.chatRequest(messages, false), &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", &UpstreamError{Op: "request", Body: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return "", &UpstreamError{Op: "request", Err: fmt.Errorf("no response from LocalAI")}
	}
	return result.Choices[0].Message.Content, nil
}

// ChatStream sends messages with streaming enabled. The caller must Close
// the returned stream; cancelling ctx also ends it.
func (c *Client) ChatStream(ctx context.Context, messages []localai.ChatMessage) (*Stream, error) {
	data, err := json.Marshal(c.chatRequest(messages, true))
	if err != nil {
		return nil, err
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/chat/completions", data)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Op: "stream", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, newStatusError("stream", resp.StatusCode, body)
	}
	return newStream(resp.Body, c.logger), nil
}

// Complete performs a one-shot text completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, req localai.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	model := c.settings.CompletionModel
	if model == "" {
		model = c.chatModel()
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.settings.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultCompleteTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.settings.Temperature
	}
	if temperature == 0 {
		temperature = defaultCompleteTemp
	}
	stop := req.Stop
	if len(stop) == 0 {
		stop = defaultStop
	}

	body := completionsRequest{
		Model:       model,
		Prompt:      req.Prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stop:        stop,
	}

	var result completionsResponse
	if err := c.postJSON(ctx, "completion", "/v1/completions", body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", &UpstreamError{Op: "completion", Body: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return "", &UpstreamError{Op: "completion", Err: fmt.Errorf("no choices in response")}
	}
	return result.Choices[0].Text, nil
}

// TestConnection reports whether GET /v1/models answers 200.
// Failures of any kind yield false.
func (c *Client) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, http.MethodGet, "/v1/models", nil)
	if err != nil {
		c.logger.Debug("connection probe failed", zap.Error(err))
		return false
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("connection probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("connection probe rejected", zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, data)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("parse response: %w", err)}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.settings.Endpoint+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.settings.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)
	}
	return req, nil
}
