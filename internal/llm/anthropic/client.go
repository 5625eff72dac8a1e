package anthropic

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

	"happenstance-backend/internal/llm"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultVersion = "2023-06-01"
	messagesPath   = "/v1/messages"
)

// Options configures the Messages API client.
type Options struct {
	BaseURL string
	Version string
	// Timeout of zero leaves the request bounded only by the caller context.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client using the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	version    string
	httpClient *http.Client
}

// NewClient constructs a new Anthropic client.
func NewClient(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = defaultVersion
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		version:    version,
		httpClient: httpClient,
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Usage   *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

// Generate sends a single Messages API request and returns the response body
// unmodified on success.
func (c *Client) Generate(ctx context.Context, input llm.GenerateInput) (json.RawMessage, error) {
	if strings.TrimSpace(input.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if input.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive")
	}

	reqBody := messagesRequest{
		Model:     input.Model,
		MaxTokens: input.MaxTokens,
		System:    input.SystemPrompt,
		Messages: []message{
			{Role: "user", Content: input.UserPrompt},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("anthropic request timeout: %w", err)
		}
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("anthropic read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstreamError(resp.StatusCode, body)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("anthropic response parse: invalid JSON")
	}
	return json.RawMessage(body), nil
}

// Text concatenates the text blocks of a Messages API response.
func (c *Client) Text(payload json.RawMessage) (string, error) {
	var parsed messagesResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("anthropic response parse: %w", err)
	}
	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type != "text" {
			continue
		}
		b.WriteString(block.Text)
	}
	return b.String(), nil
}

func upstreamError(status int, body []byte) *llm.UpstreamError {
	out := &llm.UpstreamError{StatusCode: status}
	if json.Valid(body) {
		out.Body = json.RawMessage(body)
	}
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		out.Message = strings.TrimSpace(parsed.Error.Message)
	}
	return out
}

var (
	_ llm.Client        = (*Client)(nil)
	_ llm.TextExtractor = (*Client)(nil)
)
