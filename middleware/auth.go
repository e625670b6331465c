package middleware

import (
	"errors"
	"net/http"

	"filebox/services"
	"filebox/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the bearer token to a user and stores it under
// "user" (and its id under "user_id") for the handlers behind it.
func AuthMiddleware(gate services.AuthGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := gate.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			var appErr *services.AppError
			if errors.As(err, &appErr) {
				utils.ErrorWithKind(c, appErr.HTTPCode, appErr.Message, appErr.Kind)
			} else {
				utils.ErrorWithKind(c, http.StatusInternalServerError, "internal error", services.KindInternal)
			}
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
