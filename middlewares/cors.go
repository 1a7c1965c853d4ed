package middlewares

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func CORSMiddlewares(allowOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Authorizations", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowWebSockets:  true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cors.New(cfg)
}
