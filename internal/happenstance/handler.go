package happenstance

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"happenstance-backend/internal/llm"
	"happenstance-backend/internal/shared/metrics"
	"happenstance-backend/internal/shared/server/respond"
)

const outcomeKey = "analysisOutcome"

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the analysis route to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/analyze", h.analyze)
}

// MethodNotAllowed answers any method other than POST and OPTIONS.
func MethodNotAllowed(c *gin.Context) {
	respond.Error(c, http.StatusMethodNotAllowed, MessageMethodNotAllowed, "")
}

func (h *Handler) analyze(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, metrics.OutcomeInvalidInput, http.StatusBadRequest, MessageInvalidInput, describeValidation(err))
		return
	}

	payload, err := h.Svc.Analyze(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set(outcomeKey, metrics.OutcomeSuccess)
	metrics.IncAnalysis(metrics.OutcomeSuccess)
	respond.Raw(c, http.StatusOK, payload)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		upstream  *llm.UpstreamError
		transport *TransportError
	)
	switch {
	case errors.Is(err, ErrInvalidInput):
		h.fail(c, metrics.OutcomeInvalidInput, http.StatusBadRequest, MessageInvalidInput, detailOf(err))
	case errors.Is(err, ErrNotConfigured):
		h.fail(c, metrics.OutcomeNotConfigured, http.StatusInternalServerError, h.Svc.NotConfiguredMessage(), "")
	case errors.As(err, &upstream):
		message := upstream.Message
		if message == "" {
			message = MessageAnalysisFailed
		}
		h.fail(c, metrics.OutcomeUpstreamError, upstreamStatus(upstream.StatusCode), message, "")
	case errors.As(err, &transport):
		h.fail(c, metrics.OutcomeTransportError, http.StatusInternalServerError, transport.Error(), "")
	default:
		h.fail(c, metrics.OutcomeTransportError, http.StatusInternalServerError, err.Error(), "")
	}
}

func (h *Handler) fail(c *gin.Context, outcome string, status int, message, details string) {
	c.Set(outcomeKey, outcome)
	metrics.IncAnalysis(outcome)
	respond.Error(c, status, message, details)
}

// upstreamStatus forwards provider error statuses; anything outside the
// error range becomes 500.
func upstreamStatus(status int) int {
	if status >= 400 && status <= 599 {
		return status
	}
	return http.StatusInternalServerError
}

// detailOf strips the sentinel prefix added by Validate.
func detailOf(err error) string {
	msg := err.Error()
	prefix := ErrInvalidInput.Error() + ": "
	if !strings.HasPrefix(msg, prefix) {
		return ""
	}
	return strings.TrimPrefix(msg, prefix)
}
