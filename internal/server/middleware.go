// internal/server/middleware.go
package server

import (
	"fmt"
	"net/http"
	"time"

	"market-mentor/internal/common/logger"
	"market-mentor/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses an inbound X-Request-ID or mints one, and threads it
// into the request context for the pipeline's log fields.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set("requestId", id)
		c.Request = c.Request.WithContext(pipeline.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  c.GetString("requestId"),
		})
	}
}

// AskRecovery keeps /ask on its 200 contract when a handler panics.
func AskRecovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("error in ask route", map[string]interface{}{
			"panic":     fmt.Sprintf("%v", recovered),
			"requestId": c.GetString("requestId"),
		})
		c.AbortWithStatusJSON(http.StatusOK, AskResponse{
			Response: fmt.Sprintf("An error occurred: %v", recovered),
		})
	})
}
