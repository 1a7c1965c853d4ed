package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/notification-hub/utils"
)

const ContextLiveToken = "live_token"

// LiveToken finds the token a live connection presents: the :token path
// segment, the Authorization or Authorizations header, or ?token=. It does
// not validate it; the hub does that during the handshake.
func LiveToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			token = utils.BearerToken(c.GetHeader("Authorization"))
		}
		if token == "" {
			token = utils.BearerToken(c.GetHeader("Authorizations"))
		}
		if token == "" {
			token = c.Query("token")
		}
		c.Set(ContextLiveToken, token)
		c.Next()
	}
}
