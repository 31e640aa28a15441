package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/keyword-chatbot/internal/auth"
	"github.com/suPer8Hu/keyword-chatbot/internal/common"
)

const AdminKey = "admin"

// AuthRequired admits requests carrying a valid "Bearer <jwt>" header and
// stores the admin username under AdminKey. An empty secret admits nobody.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			common.Fail(c, http.StatusForbidden, "admin api disabled")
			return
		}
		h := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			common.Fail(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := auth.ParseJWT(secret, strings.TrimSpace(token))
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Set(AdminKey, claims.Username)
		c.Next()
	}
}
