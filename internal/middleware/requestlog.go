package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PaulBabatuyi/chatlog/internal/logging"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id, stores a request-scoped logger on the
// gin context and logs one line per request once the handler chain returns.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		reqLog := log.With("request_id", reqID)
		c.Set(loggerKeyName, reqLog)

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch status := c.Writer.Status(); {
		case status >= 500:
			reqLog.Error(ctx, "request", args...)
		case status >= 400:
			reqLog.Warn(ctx, "request", args...)
		default:
			reqLog.Info(ctx, "request", args...)
		}
	}
}

const loggerKeyName = "chatlog.logger"

// Logger returns the request-scoped logger, or fallback when RequestLogger
// did not run.
func Logger(c *gin.Context, fallback logging.Logger) logging.Logger {
	if v, ok := c.Get(loggerKeyName); ok {
		if l, ok := v.(logging.Logger); ok {
			return l
		}
	}
	return fallback
}

// NoCache marks every response as non-cacheable.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
