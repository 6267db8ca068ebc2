package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader is the header carrying the client API key.
const APIKeyHeader = "X-API-Key"

// APIKeyProvider returns the currently valid API key. The key can be
// rotated at runtime, so it is resolved per request.
type APIKeyProvider interface {
	APIKey() string
}

// APIKeyAuth returns a middleware that requires a valid X-API-Key header.
func APIKeyAuth(keys APIKeyProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(APIKeyHeader)
		expected := keys.APIKey()
		if presented == "" || expected == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
