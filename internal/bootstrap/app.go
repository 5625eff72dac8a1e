package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"happenstance-backend/internal/happenstance"
	"happenstance-backend/internal/llm"
	"happenstance-backend/internal/llm/anthropic"
	"happenstance-backend/internal/llm/openai"
	"happenstance-backend/internal/shared/config"
	"happenstance-backend/internal/shared/secrets"
	"happenstance-backend/internal/shared/server"
	"happenstance-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	LLM             llm.Client
	AnalysisService *happenstance.Service
	AnalysisHandler *happenstance.Handler
}

// Options let callers replace external collaborators, mainly in tests.
type Options struct {
	LLM          llm.Client
	SecretGetter secrets.SecretGetter
}

// Build prepares dependencies and the router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	telemetry.Configure(cfg.LogLevel)

	apiKey := resolveAPIKey(ctx, cfg, opts.SecretGetter)
	cfg.SetAPIKey(apiKey)

	client := opts.LLM
	if client == nil {
		var err error
		if client, err = NewLLMClient(cfg); err != nil {
			return nil, err
		}
	}

	svc := happenstance.NewService(client, happenstance.Settings{
		Provider:       cfg.LLMProvider,
		CredentialName: cfg.APIKeyName(),
		APIKey:         apiKey,
		Model:          cfg.LLMModel,
		MaxTokens:      cfg.LLMMaxTokens,
	})
	handler := happenstance.NewHandler(svc)

	app := &App{
		Config:          cfg,
		LLM:             client,
		AnalysisService: svc,
		AnalysisHandler: handler,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: handler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":            cfg.Env,
		"provider":       cfg.LLMProvider,
		"model":          cfg.LLMModel,
		"max_tokens":     cfg.LLMMaxTokens,
		"api_key_loaded": apiKey != "",
	})
	return app, nil
}

func resolveAPIKey(ctx context.Context, cfg config.Config, getter secrets.SecretGetter) string {
	if strings.TrimSpace(cfg.APIKey()) == "" && strings.TrimSpace(cfg.APIKeySecretID) != "" && getter == nil {
		client, err := secrets.NewSecretsManager(ctx, cfg.AWSRegion)
		if err != nil {
			telemetry.Error("config.secret_client_failed", map[string]any{"error": err.Error()})
			return ""
		}
		getter = client
	}
	return secrets.ResolveAPIKey(ctx, cfg, getter)
}

// NewLLMClient returns the client for the configured provider, or the
// placeholder when no key is available. A missing key is reported per
// request, not at startup.
func NewLLMClient(cfg config.Config) (llm.Client, error) {
	apiKey := cfg.APIKey()
	if strings.TrimSpace(apiKey) == "" {
		telemetry.Warn("config.missing_api_key", map[string]any{
			"provider": cfg.LLMProvider,
			"hint":     "set " + cfg.APIKeyName() + " or LLM_API_KEY_SECRET_ID",
		})
		return llm.PlaceholderClient{}, nil
	}
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return openai.NewClient(apiKey, openai.Options{
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: timeout,
		})
	case config.ProviderAnthropic, "":
		return anthropic.NewClient(apiKey, anthropic.Options{
			BaseURL: cfg.AnthropicBaseURL,
			Version: cfg.AnthropicVersion,
			Timeout: timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
