package happenstance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"happenstance-backend/internal/llm"
	"happenstance-backend/internal/shared/metrics"
	"happenstance-backend/internal/shared/telemetry"
)

// Settings are the fixed outbound parameters injected at construction.
type Settings struct {
	Provider       string
	CredentialName string
	APIKey         string
	Model          string
	MaxTokens      int
}

// Service validates requests, builds the prompt and performs the single
// outbound generation call.
type Service struct {
	LLM      llm.Client
	Settings Settings
}

// NotConfiguredMessage is the caller-facing text for a missing credential.
func (s *Service) NotConfiguredMessage() string {
	return NotConfiguredMessage(s.Settings.CredentialName)
}

// NewService constructs a Service.
func NewService(client llm.Client, settings Settings) *Service {
	return &Service{LLM: client, Settings: settings}
}

// Analyze returns the provider payload unmodified. Errors are ErrInvalidInput,
// ErrNotConfigured, *llm.UpstreamError or *TransportError. Nothing is retried.
func (s *Service) Analyze(ctx context.Context, req AnalysisRequest) (json.RawMessage, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Settings.APIKey) == "" || s.LLM == nil {
		telemetry.Error("config.missing_api_key", map[string]any{
			"provider":   s.Settings.Provider,
			"credential": s.Settings.CredentialName,
			"model":      s.Settings.Model,
		})
		return nil, ErrNotConfigured
	}

	prompt := BuildPrompt(req.Events, req.RequestStructuredData)
	telemetry.Info("analysis.request", map[string]any{
		"provider":    s.Settings.Provider,
		"model":       s.Settings.Model,
		"structured":  req.RequestStructuredData,
		"prompt_hash": prompt.Hash(),
	})

	start := time.Now()
	payload, err := s.LLM.Generate(ctx, llm.GenerateInput{
		Model:        s.Settings.Model,
		MaxTokens:    s.Settings.MaxTokens,
		SystemPrompt: prompt.System,
		UserPrompt:   prompt.User,
	})
	metrics.ObserveUpstream(time.Since(start))
	if err != nil {
		var upstream *llm.UpstreamError
		switch {
		case errors.As(err, &upstream):
			telemetry.Error("llm.upstream_error", map[string]any{
				"provider": s.Settings.Provider,
				"status":  upstream.StatusCode,
				"message": upstream.Message,
				"payload": string(upstream.Body),
			})
			return nil, upstream
		case errors.Is(err, llm.ErrNotConfigured):
			return nil, ErrNotConfigured
		default:
			telemetry.Error("llm.transport_error", map[string]any{
				"provider": s.Settings.Provider,
				"error":    err.Error(),
			})
			return nil, &TransportError{Err: err}
		}
	}

	if req.RequestStructuredData {
		s.inspectSkillTags(payload)
	}
	return payload, nil
}

// inspectSkillTags logs what the structured block contained. The payload
// returned to the caller is never altered.
func (s *Service) inspectSkillTags(payload json.RawMessage) {
	extractor, ok := s.LLM.(llm.TextExtractor)
	if !ok {
		return
	}
	text, err := extractor.Text(payload)
	if err != nil {
		telemetry.Warn("analysis.skill_tags_unreadable", map[string]any{"error": err.Error()})
		return
	}
	tags, err := ExtractSkillTags(text)
	if err != nil {
		telemetry.Warn("analysis.skill_tags_missing", map[string]any{"error": err.Error()})
		return
	}
	summary := tags.Summarize()
	counts := make(map[string]int, len(summary.Counts))
	for k, v := range summary.Counts {
		counts[string(k)] = v
	}
	telemetry.Info("analysis.skill_tags", map[string]any{
		"event_count":    summary.EventCount,
		"count_mismatch": summary.EventCount != RequiredEventCount,
		"skills":         counts,
		"unknown_skills": summary.Unknown,
	})
}
