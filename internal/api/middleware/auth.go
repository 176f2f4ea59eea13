package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const tokenKey = "bearer_token"

// RequireToken extracts the bearer token and stores it for handlers. The
// token is forwarded to the ledger as is; it is not validated here. With
// allowMissing set (dev mode) requests without a token pass through.
func RequireToken(allowMissing bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" && !allowMissing {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication token"})
			return
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

// Token returns the bearer token stored by RequireToken.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func bearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
