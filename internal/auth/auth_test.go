package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	token, err := m.GenerateAccessToken("user-1", "a@example.com")
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTManager("other", time.Minute).ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := NewJWTManager("secret", -time.Minute).GenerateAccessToken("user-1", "a@example.com")
		require.NoError(t, err)
		_, err = m.ParseAndValidate(expired)
		assert.Error(t, err)
	})
}

func TestBcryptPasswordHasher(t *testing.T) {
	h := NewBcryptPasswordHasherWithCost(4)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "wrong"))
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 4, cost)
}

func TestBcryptPasswordHasher_CostOutOfRange(t *testing.T) {
	for _, cost := range []int{0, 3, 32} {
		hash, err := NewBcryptPasswordHasherWithCost(cost).Hash("pw")
		require.NoError(t, err)
		got, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, got, "cost %d", cost)
	}
}

func TestMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Minute)
	token, err := m.GenerateAccessToken("user-1", "a@example.com")
	require.NoError(t, err)

	r := gin.New()
	whoami := func(c *gin.Context) { c.String(http.StatusOK, GetUserID(c)) }
	r.GET("/required", AuthRequired(m), whoami)
	r.GET("/optional", OptionalAuth(m), whoami)

	tests := []struct {
		name   string
		path   string
		header string
		code   int
		body   string
	}{
		{"required without header", "/required", "", http.StatusUnauthorized, ""},
		{"required bad scheme", "/required", "Basic abc", http.StatusUnauthorized, ""},
		{"required valid", "/required", "Bearer " + token, http.StatusOK, "user-1"},
		{"optional anonymous", "/optional", "", http.StatusOK, ""},
		{"optional valid", "/optional", "Bearer " + token, http.StatusOK, "user-1"},
		{"optional invalid token", "/optional", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}
