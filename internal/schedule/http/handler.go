package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
	"github.com/nekogravitycat/service-booking-backend/internal/user"
)

// UserLookup resolves the caller's role. Implemented by user.Service.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Handler struct {
	service schedule.Service
	users   UserLookup
}

func NewHandler(service schedule.Service, users UserLookup) *Handler {
	return &Handler{service: service, users: users}
}

// role returns the caller's role, or empty for anonymous callers.
func (h *Handler) role(c *gin.Context) user.Role {
	if r := auth.GetUserRole(c); r != "" {
		return user.Role(r)
	}
	userID := auth.GetUserID(c)
	if userID == "" {
		return ""
	}
	u, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		return ""
	}
	auth.SetUserRole(c, string(u.Role))
	return u.Role
}

func (h *Handler) isStaff(c *gin.Context) bool {
	r := h.role(c)
	return r == user.RoleStaff || r == user.RoleAdmin
}

func (h *Handler) viewer(c *gin.Context) schedule.Viewer {
	return schedule.Viewer{UserID: auth.GetUserID(c), Staff: h.isStaff(c)}
}

func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	a, err := h.service.Availability(c.Request.Context(), schedule.AvailabilityRequest{
		ServiceID:  uri.ID,
		Date:       q.Date,
		EmployeeID: q.EmployeeID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(a))
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	s, err := h.service.Create(c.Request.Context(), schedule.CreateRequest{
		ServiceID:     req.ServiceID,
		Date:          req.Date,
		Time:          req.Time,
		EmployeeID:    req.EmployeeID,
		UserID:        auth.GetUserID(c),
		GuestName:     req.GuestName,
		GuestEmail:    req.GuestEmail,
		GuestPhone:    req.GuestPhone,
		Notes:         req.Notes,
		OrderID:       req.OrderID,
		CreatedByRole: string(h.role(c)),
		AutoAssign:    req.AutoAssign,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateScheduleResponse{Success: true, Schedule: NewScheduleResponse(s)})
}

func (h *Handler) List(c *gin.Context) {
	var req ListSchedulesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	filter := schedule.Filter{
		UserID:     req.UserID,
		EmployeeID: req.EmployeeID,
		ServiceID:  req.ServiceID,
		Status:     req.Status,
		From:       req.From,
		To:         req.To,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  strings.ToUpper(req.SortOrder),
	}

	schedules, total, err := h.service.List(c.Request.Context(), filter, h.viewer(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		items[i] = NewScheduleResponse(s)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	s, err := h.service.Get(c.Request.Context(), req.ID, h.viewer(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewScheduleResponse(s))
}

// Cancel lets customers cancel their own upcoming bookings and staff cancel any active one.
func (h *Handler) Cancel(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var (
		s   *schedule.Schedule
		err error
	)
	if h.isStaff(c) {
		s, err = h.service.CancelByAdmin(c.Request.Context(), req.ID)
	} else {
		s, err = h.service.CancelByCustomer(c.Request.Context(), req.ID, auth.GetUserID(c))
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewScheduleResponse(s))
}

func (h *Handler) Assign(c *gin.Context) {
	h.byID(c, h.service.AssignEmployee)
}

func (h *Handler) Complete(c *gin.Context) {
	h.byID(c, h.service.Complete)
}

func (h *Handler) NoShow(c *gin.Context) {
	h.byID(c, h.service.MarkNoShow)
}

func (h *Handler) byID(c *gin.Context, op func(ctx context.Context, id string) (*schedule.Schedule, error)) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	s, err := op(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewScheduleResponse(s))
}

func (h *Handler) Reconcile(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	s, changed, err := h.service.Reconcile(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ChangeResponse{Changed: changed, Schedule: NewScheduleResponse(s)})
}
