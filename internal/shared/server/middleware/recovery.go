package middleware

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"happenstance-backend/internal/shared/server/respond"
	"happenstance-backend/internal/shared/telemetry"
)

// Recovery recovers from panics, logs the stack and returns a 500 error body.
func Recovery() gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(telemetry.Logger(), true, func(c *gin.Context, rec any) {
		respond.Error(c, http.StatusInternalServerError, "Unexpected server error", "")
	})
}
