package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/service-booking-backend/internal/user"
	"github.com/nekogravitycat/service-booking-backend/internal/workhours"
)

type Handler struct {
	service workhours.Service
}

func NewHandler(service workhours.Service) *Handler {
	return &Handler{service: service}
}

// canManage allows admins to edit anyone's hours and staff to edit their own.
func canManage(c *gin.Context, employeeID string) bool {
	if auth.GetUserRole(c) == string(user.RoleAdmin) {
		return true
	}
	return auth.GetUserID(c) == employeeID
}

func (h *Handler) List(c *gin.Context) {
	var uri EmployeeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	templates, err := h.service.ListByEmployee(c.Request.Context(), uri.EmployeeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]TemplateResponse, len(templates))
	for i, t := range templates {
		items[i] = NewTemplateResponse(t)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Upsert(c *gin.Context) {
	var uri EmployeeDayURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if !canManage(c, uri.EmployeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden: cannot edit another employee's hours"})
		return
	}

	var body UpsertTemplateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	t, err := h.service.Upsert(c.Request.Context(), workhours.UpsertRequest{
		EmployeeID: uri.EmployeeID,
		DayOfWeek:  uri.Day,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
		BreakStart: body.BreakStart,
		BreakEnd:   body.BreakEnd,
		IsActive:   body.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewTemplateResponse(t))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri EmployeeDayURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if !canManage(c, uri.EmployeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden: cannot edit another employee's hours"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.EmployeeID, uri.Day); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
