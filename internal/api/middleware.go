package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/user"
)

// UserLookup loads the caller. Implemented by user.Service.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// RequireRole ensures the authenticated user is active and holds one of roles,
// and records the role for later handlers.
// It MUST be used after auth.AuthRequired middleware.
func RequireRole(users UserLookup, roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		u, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || !u.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if !slices.Contains(roles, u.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
			return
		}

		auth.SetUserRole(c, string(u.Role))
		c.Next()
	}
}
