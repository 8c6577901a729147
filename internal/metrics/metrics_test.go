package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/v1/schedules/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/schedules/:id", "204"))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/v1/schedules/"+id, nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/schedules/:id", "204"))
	assert.Equal(t, 2.0, after-before)
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingConflicts.WithLabelValues("employee"))
	IncConflict("employee")
	assert.Equal(t, 1.0, testutil.ToFloat64(bookingConflicts.WithLabelValues("employee"))-before)

	beforeT := testutil.ToFloat64(statusTransitions.WithLabelValues("PENDING", "CONFIRMED"))
	IncTransition("PENDING", "CONFIRMED")
	IncTransition("PENDING", "CONFIRMED")
	assert.Equal(t, 2.0, testutil.ToFloat64(statusTransitions.WithLabelValues("PENDING", "CONFIRMED"))-beforeT)

	beforeC := testutil.ToFloat64(schedulesCreated)
	IncScheduleCreated()
	assert.Equal(t, 1.0, testutil.ToFloat64(schedulesCreated)-beforeC)
}

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
