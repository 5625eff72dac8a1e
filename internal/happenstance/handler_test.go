package happenstance

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"happenstance-backend/internal/llm"
)

func setupRouter(t *testing.T, stub *stubLLM, settings Settings) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	captureLogs(t)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(MethodNotAllowed)
	NewHandler(NewService(stub, settings)).RegisterRoutes(router.Group("/api"))
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func validBody(t *testing.T, structured bool) string {
	t.Helper()
	body, err := json.Marshal(AnalysisRequest{Events: sampleEvents(), RequestStructuredData: structured})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(body)
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return out
}

func TestAnalyzeSuccess(t *testing.T) {
	stub := &stubLLM{payload: json.RawMessage(upstreamPayload)}
	router := setupRouter(t, stub, testSettings())

	resp := postJSON(router, validBody(t, false))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Body.String() != upstreamPayload {
		t.Fatalf("expected payload unmodified, got %s", resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestAnalyzeInvalidBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		details string
	}{
		{name: "empty body", body: "", details: "request body is required"},
		{name: "malformed json", body: `{"events":`, details: "request body must be valid JSON"},
		{name: "events missing", body: `{}`, details: "events is required"},
		{name: "events null", body: `{"events":null}`, details: "events is required"},
		{name: "events not array", body: `{"events":"four"}`, details: "events must be an array"},
		{name: "events object", body: `{"events":{"title":"x"}}`, details: "events must be an array"},
		{name: "events empty", body: `{"events":[]}`, details: "events must contain exactly 4 entries"},
		{name: "three events", body: `{"events":[{},{},{}]}`, details: "events must contain exactly 4 entries"},
		{name: "null entry", body: `{"events":[{},null,{},{}]}`, details: "events[1] must be an object"},
		{name: "entry not object", body: `{"events":[1,2,3,4]}`, details: "events entries must be objects"},
		{name: "structured flag not bool", body: `{"events":[{},{},{},{}],"requestStructuredData":"yes"}`, details: "requestStructuredData must be a boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLLM{payload: json.RawMessage(upstreamPayload)}
			router := setupRouter(t, stub, testSettings())

			resp := postJSON(router, tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
			body := decodeError(t, resp)
			if body["error"] != MessageInvalidInput {
				t.Fatalf("unexpected error %q", body["error"])
			}
			if body["details"] != tt.details {
				t.Fatalf("details = %q, want %q", body["details"], tt.details)
			}
			if stub.callCount() != 0 {
				t.Fatalf("expected no outbound call, got %d", stub.callCount())
			}
		})
	}
}

func TestAnalyzeEmptyFieldsAccepted(t *testing.T) {
	stub := &stubLLM{payload: json.RawMessage(upstreamPayload)}
	router := setupRouter(t, stub, testSettings())

	resp := postJSON(router, `{"events":[{},{},{},{"title":""}]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.callCount() != 1 {
		t.Fatalf("expected 1 call, got %d", stub.callCount())
	}
}

func TestAnalyzeMissingCredential(t *testing.T) {
	stub := &stubLLM{payload: json.RawMessage(upstreamPayload)}
	settings := testSettings()
	settings.APIKey = ""
	router := setupRouter(t, stub, settings)

	resp := postJSON(router, validBody(t, false))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body["error"] != MessageNotConfigured {
		t.Fatalf("unexpected error %q", body["error"])
	}
	if stub.callCount() != 0 {
		t.Fatalf("expected no outbound call, got %d", stub.callCount())
	}
}

func TestAnalyzeUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "rate limited",
			err:     &llm.UpstreamError{StatusCode: 429, Message: "rate limited"},
			status:  http.StatusTooManyRequests,
			message: "rate limited",
		},
		{
			name:    "no message",
			err:     &llm.UpstreamError{StatusCode: 503},
			status:  http.StatusServiceUnavailable,
			message: MessageAnalysisFailed,
		},
		{
			name:    "no status",
			err:     &llm.UpstreamError{Message: "weird"},
			status:  http.StatusInternalServerError,
			message: "weird",
		},
		{
			name:    "transport",
			err:     errors.New("dial tcp: lookup api.anthropic.com: no such host"),
			status:  http.StatusInternalServerError,
			message: "dial tcp: lookup api.anthropic.com: no such host",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLLM{err: tt.err}
			router := setupRouter(t, stub, testSettings())

			resp := postJSON(router, validBody(t, false))
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
			if body := decodeError(t, resp); body["error"] != tt.message {
				t.Fatalf("error = %q, want %q", body["error"], tt.message)
			}
			if stub.callCount() != 1 {
				t.Fatalf("expected exactly 1 call, got %d", stub.callCount())
			}
		})
	}
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			stub := &stubLLM{payload: json.RawMessage(upstreamPayload)}
			router := setupRouter(t, stub, testSettings())

			req := httptest.NewRequest(method, "/api/analyze", bytes.NewReader(nil))
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != http.StatusMethodNotAllowed {
				t.Fatalf("expected 405, got %d", resp.Code)
			}
			if resp.Body.String() != `{"error":"Method not allowed"}` {
				t.Fatalf("unexpected body %s", resp.Body.String())
			}
			if stub.callCount() != 0 {
				t.Fatalf("expected no outbound call")
			}
		})
	}
}
