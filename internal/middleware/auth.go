package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dealerpix/api/internal/config"
	"dealerpix/api/internal/security"
)

const TenantKey = "tenant_id"

// TenantAuth resolves the caller's tenant from the bearer token and stashes
// it for the handlers. Anything beyond tenant identification is upstream.
func TenantAuth(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseTenantToken(tokenStr, cfg.Security.TenantTokenSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set(TenantKey, claims.TenantID)
		c.Next()
	}
}
