package middleware

import (
	"context"
	"time"

	"meetgate/pkg/logger"
	"meetgate/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id back to the client; an incoming
// value is honored so upstream proxies can correlate.
const RequestIDHeader = "X-Request-ID"

// RequestLoggerMiddleware stamps every request with a request id and logs
// method, path, status and duration through the context-aware logger.
func RequestLoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	contextLogger := logger.NewContextLogger(log)

	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}

		ctx := context.WithValue(c.Request.Context(), "request_id", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		contextLogger.LogRequest(
			c.Request.Context(),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
		)
	}
}
