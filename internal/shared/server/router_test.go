package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"happenstance-backend/internal/happenstance"
	"happenstance-backend/internal/llm"
	"happenstance-backend/internal/shared/config"
)

type countingLLM struct {
	calls int
}

func (c *countingLLM) Generate(ctx context.Context, input llm.GenerateInput) (json.RawMessage, error) {
	c.calls++
	return json.RawMessage(`{"content":[{"type":"text","text":"ok"}]}`), nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *countingLLM) {
	t.Helper()
	stub := &countingLLM{}
	svc := happenstance.NewService(stub, happenstance.Settings{APIKey: "sk-test", Model: "m", MaxTokens: 10})
	r := NewRouter(RouterDeps{
		Config:          config.Defaults(),
		AnalysisHandler: happenstance.NewHandler(svc),
	})
	return r, stub
}

func TestRouterPreflight(t *testing.T) {
	router, stub := newTestRouter(t)

	for _, path := range []string{"/api/analyze", "/analyze", "/anything"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusNoContent {
			t.Fatalf("%s: expected 204, got %d", path, resp.Code)
		}
		if resp.Body.Len() != 0 {
			t.Fatalf("%s: expected empty body", path)
		}
		if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("%s: unexpected allow origin %q", path, got)
		}
		if !strings.Contains(resp.Header().Get("Access-Control-Allow-Methods"), "POST") {
			t.Fatalf("%s: allow methods must include POST", path)
		}
		if !strings.Contains(resp.Header().Get("Access-Control-Allow-Headers"), "Content-Type") {
			t.Fatalf("%s: allow headers must include Content-Type", path)
		}
	}
	if stub.calls != 0 {
		t.Fatalf("preflight must not call the service")
	}
}

func TestRouterAnalyzePaths(t *testing.T) {
	router, stub := newTestRouter(t)
	body := `{"events":[{"title":"a"},{"title":"b"},{"title":"c"},{"title":"d"}]}`

	for _, path := range []string{"/api/analyze", "/analyze"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.Code, resp.Body.String())
		}
		if resp.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
		if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("%s: expected CORS header on POST", path)
		}
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", stub.calls)
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	if resp.Body.String() != `{"error":"Method not allowed"}` {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || resp.Body.String() != `{"ok":true}` {
		t.Fatalf("unexpected health response %d %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", resp.Code)
	}
}

func TestAddr(t *testing.T) {
	tests := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range tests {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
