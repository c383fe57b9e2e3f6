// Package logging configures the process-wide logrus logger and the gin
// request logger built on top of it.
package logging

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// Log is shared by every package that needs to log outside a request.
var Log = logrus.New()

// Setup applies level ("debug", "info", ...) and format ("text" or "json").
func Setup(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.WithField("level", level).Warn("unknown log level, falling back to info")
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// Middleware logs one line per request and tags it with a request id.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set("request_id", requestID)

		c.Next()

		entry := Log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if uid, ok := c.Get("user_id"); ok {
			entry = entry.WithField("user_id", uid)
		}

		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("request failed")
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		default:
			entry.Info("request handled")
		}
	}
}

// FromContext returns a logger entry carrying the request id, if any.
func FromContext(c *gin.Context) *logrus.Entry {
	entry := logrus.NewEntry(Log)
	if id, ok := c.Get("request_id"); ok {
		entry = entry.WithField("request_id", id)
	}
	return entry
}
