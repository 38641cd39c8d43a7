package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"schemaboard/internal/responses"
	"schemaboard/internal/utils"
)

// UserIDKey is the gin context key holding the caller's user id.
const UserIDKey = "userId"

// Authenticate verifies the Bearer access token and stores its subject
// under UserIDKey.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, "Missing Authorization header")
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, "Invalid Authorization format")
			return
		}

		claims, err := utils.VerifyJWT(parts[1], secret)
		if err != nil {
			abort(c, "Invalid or expired token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abort(c, "Invalid token subject")
			return
		}

		c.Set(UserIDKey, userID.String())
		c.Next()
	}
}

func abort(c *gin.Context, message string) {
	responses.Fail(c, http.StatusUnauthorized, errors.New("unauthenticated"), message)
	c.Abort()
}
