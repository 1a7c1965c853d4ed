package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/notification-hub/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"ip":      c.ClientIP(),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn(path)
			return
		}
		entry.Info(path)
	}
}
