// README: Bearer-token auth middleware; populates caller identity for handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleetwatch/internal/auth"
)

const claimsKey = "auth.claims"

// Auth rejects requests without a valid bearer token and stores the verified
// claims on the request context.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole runs after Auth and rejects callers whose role differs.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: " + role + " role required"})
			return
		}
		c.Next()
	}
}

// CallerClaims returns the verified claims, or nil outside an Auth route.
func CallerClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func CallerUID(c *gin.Context) string {
	if claims := CallerClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func CallerRole(c *gin.Context) string {
	if claims := CallerClaims(c); claims != nil {
		return claims.Role
	}
	return ""
}
