package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Client abstracts the external text-generation service.
type Client interface {
	Generate(ctx context.Context, input GenerateInput) (json.RawMessage, error)
}

// TextExtractor is implemented by clients that know how to pull the generated
// text out of their provider's response payload.
type TextExtractor interface {
	Text(payload json.RawMessage) (string, error)
}

// GenerateInput captures one outbound generation request.
type GenerateInput struct {
	Model        string
	MaxTokens    int
	SystemPrompt string
	UserPrompt   string
}

// UpstreamError reports a non-success response from the provider.
type UpstreamError struct {
	StatusCode int
	Message    string
	Body       json.RawMessage
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient stands in when no provider credential is available.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, input GenerateInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}
