package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates investor JWT tokens and protects routes
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("investor_id", claims.InvestorID)
		c.Set("investor_email", claims.Email)

		c.Next()
	}
}

// AdminMiddleware protects admin routes with basic auth against the
// configured credentials.
func AdminMiddleware(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !ok || !userMatch || !passMatch {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin authentication required"})
			c.Abort()
			return
		}

		c.Set("admin_name", user)
		c.Next()
	}
}

// GetInvestorID retrieves the investor ID from the context
func GetInvestorID(c *gin.Context) (uint, bool) {
	investorID, exists := c.Get("investor_id")
	if !exists {
		return 0, false
	}

	id, ok := investorID.(uint)
	return id, ok
}

// GetAdminName retrieves the authenticated admin username from the context
func GetAdminName(c *gin.Context) string {
	name, exists := c.Get("admin_name")
	if !exists {
		return ""
	}
	s, _ := name.(string)
	return s
}
