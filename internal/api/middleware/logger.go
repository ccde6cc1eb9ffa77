package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestLogger tags each request with an id and logs it on completion.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		entry := logs.Logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    time.Since(start).String(),
			"request_id": id,
		})
		switch {
		case status >= 500:
			entry.Error("[HTTP] request failed")
		case status >= 400:
			entry.Warn("[HTTP] request rejected")
		default:
			entry.Info("[HTTP] request handled")
		}
	}
}

func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
