package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// LoggerConfig holds configuration for the request logger middleware
type LoggerConfig struct {
	Format string // "json" or "text"
	Level  string // "debug", "info", "warn", "error"
}

// RequestLogger creates a middleware that logs every handled request
func RequestLogger(config LoggerConfig) gin.HandlerFunc {
	if config.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if level, err := log.ParseLevel(config.Level); err == nil {
		log.SetLevel(level)
	}

	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		entry := log.WithFields(log.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"query":     c.Request.URL.RawQuery,
			"status":    c.Writer.Status(),
			"latency":   time.Since(startTime).String(),
			"clientIP":  c.ClientIP(),
			"userAgent": c.Request.UserAgent(),
		})

		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
