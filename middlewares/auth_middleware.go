package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/notification-hub/utils"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware resolves the caller from the Authorization header and
// stores user_id and role in the context.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.ParseToken(utils.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			utils.RespondServiceError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// CurrentUserID returns the id set by AuthMiddleware.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
