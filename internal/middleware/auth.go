package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"immitrack/internal/authz"
)

const (
	ctxPerson = "person"
	ctxRole   = "role"
)

// endpoints reachable without a token
func isPublicPath(path string) bool {
	switch path {
	case "/login", "/healthz":
		return true
	}
	return strings.HasPrefix(path, "/swagger")
}

// bearerToken reads the Authorization header; the websocket route may pass
// ?token= instead since browsers cannot set headers on the upgrade request.
func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return strings.TrimSpace(c.Query("token"))
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware validates the bearer token. With an empty secret every
// request is treated as an owner.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			c.Set(ctxRole, authz.RoleOwner)
			c.Next()
			return
		}
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := authz.ParseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ctxPerson, claims.Person)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// Person returns the authenticated person, empty when auth is off.
func Person(c *gin.Context) string {
	v, _ := c.Get(ctxPerson)
	s, _ := v.(string)
	return s
}

func Role(c *gin.Context) string {
	v, _ := c.Get(ctxRole)
	s, _ := v.(string)
	return s
}
