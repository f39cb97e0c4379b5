package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gomix/internal"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "rid"
)

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// RID returns the request id of c.
func RID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog writes one line per request.
func AccessLog(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("%s %s -> %d in %s rid=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), RID(c))
	}
}
