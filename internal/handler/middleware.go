package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/auth"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/service"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/workflow"
)

const currentUserKey = "currentUser"

// AuthMiddleware parses the Bearer access token and loads the user for the
// request. Inactive users are rejected even with a valid token.
func AuthMiddleware(tokens *auth.Manager, users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error: "unauthorized", Message: "missing or malformed Authorization header",
			})
			return
		}
		userID, _, err := tokens.Verify(parts[1], auth.TokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error: "unauthorized", Message: "invalid or expired token",
			})
			return
		}
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error: "unauthorized", Message: "user missing or inactive",
			})
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireAction gates a route on the capability table: the current user's
// role must be allowed to perform action.
func RequireAction(action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !workflow.Authorize(user.Role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{
				Error: "forbidden", Message: "insufficient role for this operation",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by AuthMiddleware.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
