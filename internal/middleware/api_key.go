package middleware

import (
	"net/http"
	"strings"

	"github.com/osvaldoandrade/visiongo/pkg/domain"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// APIKeyMiddleware accepts "Authorization: Key <key>" for any of keys. An
// empty key list disables the check.
func APIKeyMiddleware(keys ...string) gin.HandlerFunc {
	keys = lo.Compact(lo.Map(keys, func(k string, _ int) string { return strings.TrimSpace(k) }))
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}
		key := apiKey(c.GetHeader("Authorization"))
		if key == "" || !lo.Contains(keys, key) {
			AbortWithStatus(c, http.StatusUnauthorized, domain.StatusKeyInvalid, "API key not found")
			return
		}
		c.Set("api_key", key)
		c.Next()
	}
}

func apiKey(authHeader string) string {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Key") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
