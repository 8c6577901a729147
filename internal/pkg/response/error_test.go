package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, err error, logBuf *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if logBuf != nil {
			logger := zerolog.New(logBuf)
			c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		}
		Error(c, err)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func TestError(t *testing.T) {
	t.Run("AppError uses its code", func(t *testing.T) {
		w := serve(t, apperror.New(http.StatusNotFound, "service not found"), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"service not found"}`, w.Body.String())
	})

	t.Run("AppError fields are merged", func(t *testing.T) {
		err := apperror.New(http.StatusConflict, "time slot already booked").
			WithField("available_after", "2030-01-01T10:30:00Z")
		w := serve(t, err, nil)

		require.Equal(t, http.StatusConflict, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "time slot already booked", body["error"])
		assert.Equal(t, "2030-01-01T10:30:00Z", body["available_after"])
	})

	t.Run("unknown errors are hidden and logged", func(t *testing.T) {
		var buf bytes.Buffer
		w := serve(t, errors.New("pq: connection refused"), &buf)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
		assert.Contains(t, buf.String(), "pq: connection refused")
	})
}
