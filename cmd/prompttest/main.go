package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"happenstance-backend/internal/bootstrap"
	"happenstance-backend/internal/happenstance"
	"happenstance-backend/internal/llm"
	"happenstance-backend/internal/shared/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		exitErr(fmt.Sprintf("config: %v", err))
	}

	eventsPath := flag.String("events", "", "Path to a JSON request body ({\"events\":[...]})")
	structured := flag.Bool("structured", false, "Request the trailing skill-tag JSON block")
	dryRun := flag.Bool("dry-run", false, "Print the prompt without calling the API")
	model := flag.String("model", cfg.LLMModel, "Model identifier")
	maxTokens := flag.Int("max-tokens", cfg.LLMMaxTokens, "Maximum output tokens")
	flag.Parse()

	if strings.TrimSpace(*eventsPath) == "" {
		exitErr("events path is required")
	}
	raw, err := os.ReadFile(*eventsPath)
	if err != nil {
		exitErr(fmt.Sprintf("read events: %v", err))
	}

	var req happenstance.AnalysisRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		exitErr(fmt.Sprintf("decode events: %v", err))
	}
	if *structured {
		req.RequestStructuredData = true
	}
	if err := happenstance.Validate(req); err != nil {
		exitErr(err.Error())
	}

	if *dryRun {
		prompt := happenstance.BuildPrompt(req.Events, req.RequestStructuredData)
		fmt.Printf("=== system ===\n%s\n\n=== user ===\n%s\n", prompt.System, prompt.User)
		return
	}

	if cfg.LLMTimeoutSeconds == 0 {
		cfg.LLMTimeoutSeconds = 120
	}
	client, err := bootstrap.NewLLMClient(cfg)
	if err != nil {
		exitErr(err.Error())
	}
	extractor, ok := client.(llm.TextExtractor)
	if !ok {
		exitErr(cfg.APIKeyName() + " is not set")
	}
	svc := happenstance.NewService(client, happenstance.Settings{
		Provider:       cfg.LLMProvider,
		CredentialName: cfg.APIKeyName(),
		APIKey:         cfg.APIKey(),
		Model:          *model,
		MaxTokens:      *maxTokens,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	payload, err := svc.Analyze(ctx, req)
	if err != nil {
		exitErr(fmt.Sprintf("analyze: %v", err))
	}
	text, err := extractor.Text(payload)
	if err != nil {
		exitErr(err.Error())
	}
	fmt.Println(text)

	if req.RequestStructuredData {
		tags, err := happenstance.ExtractSkillTags(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skill tags: %v\n", err)
			return
		}
		summary := tags.Summarize()
		fmt.Fprintf(os.Stderr, "skill tags: events=%d counts=%v unknown=%v\n", summary.EventCount, summary.Counts, summary.Unknown)
	}
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
