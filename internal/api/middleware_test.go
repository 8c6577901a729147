package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/user"
)

type fakeUsers map[string]*user.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	users := fakeUsers{
		"cust":  {ID: "cust", Role: user.RoleCustomer, IsActive: true},
		"staff": {ID: "staff", Role: user.RoleStaff, IsActive: true},
		"admin": {ID: "admin", Role: user.RoleAdmin, IsActive: true},
		"off":   {ID: "off", Role: user.RoleAdmin, IsActive: false},
	}

	r := gin.New()
	r.GET("/staff", auth.AuthRequired(jwtManager), RequireRole(users, user.RoleStaff, user.RoleAdmin),
		func(c *gin.Context) { c.String(http.StatusOK, auth.GetUserRole(c)) })

	tests := []struct {
		userID string
		code   int
		role   string
	}{
		{"cust", http.StatusForbidden, ""},
		{"staff", http.StatusOK, "staff"},
		{"admin", http.StatusOK, "admin"},
		{"off", http.StatusUnauthorized, ""},
		{"ghost", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			token, err := jwtManager.GenerateAccessToken(tt.userID, tt.userID+"@example.com")
			assert.NoError(t, err)

			req, _ := http.NewRequest(http.MethodGet, "/staff", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.role != "" {
				assert.Equal(t, tt.role, w.Body.String())
			}
		})
	}
}
