package middlewares

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/utils"
)

// RequireRole lets the request through when the caller has one of roles.
// Admins always pass.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextRole)
		if !exists {
			utils.RespondServiceError(c, utils.ErrUnauthenticated)
			c.Abort()
			return
		}

		role, _ := userRole.(string)
		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		utils.RespondServiceError(c, fmt.Errorf("%w: %v access required", utils.ErrForbidden, roles))
		c.Abort()
	}
}
