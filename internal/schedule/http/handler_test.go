package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
	"github.com/nekogravitycat/service-booking-backend/internal/user"
)

const (
	customerID = "11111111-1111-1111-1111-111111111111"
	staffID    = "22222222-2222-2222-2222-222222222222"
	serviceID  = "33333333-3333-3333-3333-333333333333"
	scheduleID = "44444444-4444-4444-4444-444444444444"
)

type fakeService struct {
	schedule.Service // unimplemented methods panic

	availability func(req schedule.AvailabilityRequest) (*schedule.Availability, error)
	create       func(req schedule.CreateRequest) (*schedule.Schedule, error)
	calls        []string
}

func (f *fakeService) Availability(_ context.Context, req schedule.AvailabilityRequest) (*schedule.Availability, error) {
	return f.availability(req)
}

func (f *fakeService) Create(_ context.Context, req schedule.CreateRequest) (*schedule.Schedule, error) {
	return f.create(req)
}

func (f *fakeService) CancelByCustomer(_ context.Context, id, userID string) (*schedule.Schedule, error) {
	f.calls = append(f.calls, "customer:"+userID)
	return &schedule.Schedule{ID: id, Status: schedule.StatusCancelled}, nil
}

func (f *fakeService) CancelByAdmin(_ context.Context, id string) (*schedule.Schedule, error) {
	f.calls = append(f.calls, "admin")
	return &schedule.Schedule{ID: id, Status: schedule.StatusCancelled}, nil
}

func (f *fakeService) Reconcile(_ context.Context, id string) (*schedule.Schedule, bool, error) {
	return &schedule.Schedule{ID: id, Status: schedule.StatusConfirmed}, true, nil
}

type fakeUsers map[string]*user.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type env struct {
	router *gin.Engine
	svc    *fakeService
	jwt    *auth.JWTManager
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	svc := &fakeService{}
	users := fakeUsers{
		customerID: {ID: customerID, Role: user.RoleCustomer, IsActive: true},
		staffID:    {ID: staffID, Role: user.RoleStaff, IsActive: true},
	}

	pass := func(c *gin.Context) { c.Next() }
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, users),
		auth.AuthRequired(jwtManager), auth.OptionalAuth(jwtManager), pass, pass)

	return &env{router: r, svc: svc, jwt: jwtManager}
}

func (e *env) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := e.jwt.GenerateAccessToken(userID, userID+"@example.com")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAvailability(t *testing.T) {
	e := setup(t)
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	e.svc.availability = func(req schedule.AvailabilityRequest) (*schedule.Availability, error) {
		assert.Equal(t, serviceID, req.ServiceID)
		assert.Equal(t, "2030-01-07", req.Date)
		return &schedule.Availability{
			ServiceName:  "Haircut",
			DurationMins: 30,
			Slots:        []schedule.Slot{{Time: "09:00", Start: start}},
		}, nil
	}

	w := e.do(t, http.MethodGet, "/v1/services/"+serviceID+"/availability?date=2030-01-07", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Haircut", body.ServiceName)
	assert.Equal(t, 30, body.DurationMinutes)
	require.Len(t, body.Slots, 1)
	assert.Equal(t, "09:00", body.Slots[0].Time)
	assert.True(t, start.Equal(body.Slots[0].Timestamp))

	w = e.do(t, http.MethodGet, "/v1/services/"+serviceID+"/availability", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "date is required")

	w = e.do(t, http.MethodGet, "/v1/services/not-a-uuid/availability?date=2030-01-07", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate(t *testing.T) {
	t.Run("guest gets 201", func(t *testing.T) {
		e := setup(t)
		e.svc.create = func(req schedule.CreateRequest) (*schedule.Schedule, error) {
			assert.Empty(t, req.UserID)
			assert.Empty(t, req.CreatedByRole)
			assert.Equal(t, "ann@example.com", req.GuestEmail)
			return &schedule.Schedule{ID: scheduleID, Status: schedule.StatusPending}, nil
		}

		w := e.do(t, http.MethodPost, "/v1/schedules", "", gin.H{
			"service_id": serviceID, "date": "2030-01-07", "time": "09:00", "guest_email": "ann@example.com",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var body CreateScheduleResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, scheduleID, body.Schedule.ID)
		assert.Equal(t, "PENDING", body.Schedule.Status)
	})

	t.Run("signed-in caller is attached", func(t *testing.T) {
		e := setup(t)
		e.svc.create = func(req schedule.CreateRequest) (*schedule.Schedule, error) {
			assert.Equal(t, staffID, req.UserID)
			assert.Equal(t, "staff", req.CreatedByRole)
			return &schedule.Schedule{ID: scheduleID}, nil
		}
		w := e.do(t, http.MethodPost, "/v1/schedules", staffID, gin.H{"service_id": serviceID, "date": "2030-01-07", "time": "09:00"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("conflict carries available_after", func(t *testing.T) {
		e := setup(t)
		e.svc.create = func(schedule.CreateRequest) (*schedule.Schedule, error) {
			return nil, schedule.ErrTimeConflict.WithField("available_after", "2030-01-07T09:30:00Z")
		}

		w := e.do(t, http.MethodPost, "/v1/schedules", customerID, gin.H{"service_id": serviceID, "date": "2030-01-07", "time": "09:00"})
		require.Equal(t, http.StatusConflict, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "time slot already booked", body["error"])
		assert.Equal(t, "2030-01-07T09:30:00Z", body["available_after"])
	})

	t.Run("malformed ids are rejected before the service", func(t *testing.T) {
		e := setup(t)
		w := e.do(t, http.MethodPost, "/v1/schedules", "", gin.H{"service_id": "abc", "date": "2030-01-07", "time": "09:00"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad token is rejected even though auth is optional", func(t *testing.T) {
		e := setup(t)
		req, _ := http.NewRequest(http.MethodPost, "/v1/schedules", bytes.NewBufferString(`{}`))
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCancel_RoutesByRole(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPost, "/v1/schedules/"+scheduleID+"/cancel", customerID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/v1/schedules/"+scheduleID+"/cancel", staffID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"customer:" + customerID, "admin"}, e.svc.calls)

	w = e.do(t, http.MethodPost, "/v1/schedules/"+scheduleID+"/cancel", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReconcile(t *testing.T) {
	e := setup(t)
	w := e.do(t, http.MethodPut, "/v1/schedules/"+scheduleID+"/reconcile", staffID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body ChangeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Changed)
	assert.Equal(t, "CONFIRMED", body.Schedule.Status)
}
