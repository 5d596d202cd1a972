package server

import (
	"strings"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/metrics"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing and counts them
func RequestLoggerMiddleware(recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next() // process request

		status := c.Writer.Status()
		recorder.RecordHTTPRequest(c.Request.Method, status)
		utils.Info("HTTP Request", map[string]any{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
		})
	}
}

// RequireUser rejects requests without an X-User-ID header and stores the id on the context
func RequireUser(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader(helpers.UserIDHeader))
	if userID == "" {
		status, message := helpers.MapErrorToHTTP(biddingerrors.ErrMissingUser)
		utils.AbortWithError(c, status, biddingerrors.ErrMissingUser, message)
		return
	}
	c.Set(helpers.UserIDKey, userID)
	c.Next()
}
