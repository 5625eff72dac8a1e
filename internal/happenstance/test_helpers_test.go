package happenstance

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"happenstance-backend/internal/llm"
	"happenstance-backend/internal/shared/telemetry"
)

// stubLLM records every call and returns a canned payload or error.
type stubLLM struct {
	mu      sync.Mutex
	payload json.RawMessage
	err     error
	text    string
	calls   []llm.GenerateInput
}

func (s *stubLLM) Generate(ctx context.Context, input llm.GenerateInput) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

func (s *stubLLM) Text(payload json.RawMessage) (string, error) {
	return s.text, nil
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func sampleEvents() []*LifeEvent {
	return []*LifeEvent{
		{Title: "교환학생", Period: "2015년 봄", Situation: "우연히 학과 게시판에서 공고를 봄", Action: "마감 하루 전에 지원서를 냄"},
		{Title: "첫 직장", Period: "2017-2019", Situation: "지인의 추천으로 스타트업 면접 기회", Action: "전공과 달랐지만 도전"},
		{Title: "팀 해체", Period: "2020년 여름", Situation: "회사 구조조정으로 팀이 사라짐", Action: "사내 다른 팀으로 이동 지원"},
		{Title: "", Period: "", Situation: "", Action: ""},
	}
}

func testSettings() Settings {
	return Settings{APIKey: "sk-test", Model: "claude-3-5-sonnet-latest", MaxTokens: 2000}
}

func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := telemetry.Logger()
	telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(prev) })
	return logs
}
