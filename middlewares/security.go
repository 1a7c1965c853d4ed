package middlewares

import (
	"github.com/gin-gonic/gin"
)

var securityHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Cache-Control", "no-store"},
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range securityHeaders {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}
