package middleware

import (
	"net/http"
	"strings"

	"siteworks_backend/internal/models"
	"siteworks_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const authContextKey = "authContext"

// AuthMiddleware creates a Gin middleware for JWT authentication. It builds
// the request's acting identity from the token claims and stores it in the
// Gin context for downstream handlers.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format. Use Bearer <token>"})
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
			c.Abort()
			return
		}

		role := models.Role(claims.Role)
		if !role.IsValid() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token carries an unknown role"})
			c.Abort()
			return
		}

		c.Set(authContextKey, models.AuthContext{
			UserID:         claims.UserID,
			Role:           role,
			OrganizationID: claims.OrganizationID,
		})

		c.Next()
	}
}

// GetAuthContext extracts the acting identity stored by AuthMiddleware.
func GetAuthContext(c *gin.Context) (models.AuthContext, bool) {
	value, exists := c.Get(authContextKey)
	if !exists {
		return models.AuthContext{}, false
	}
	auth, ok := value.(models.AuthContext)
	return auth, ok
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks if the caller's role (from JWT claims) is one of the allowed roles.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := GetAuthContext(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Acting identity not found. Ensure AuthMiddleware runs first."})
			c.Abort()
			return
		}

		allowed := false
		for _, r := range allowedRoles {
			if auth.Role == r {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource."})
			c.Abort()
			return
		}

		c.Next()
	}
}
