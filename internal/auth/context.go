package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserRole  = "userRole"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

// GetUserRole returns the role resolved by a role-checking middleware, or empty string.
func GetUserRole(c *gin.Context) string {
	return c.GetString(ctxUserRole)
}

// SetUserRole stores the caller's role for later handlers.
func SetUserRole(c *gin.Context, role string) {
	c.Set(ctxUserRole, role)
}
