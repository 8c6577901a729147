package http

import (
	"github.com/nekogravitycat/service-booking-backend/internal/workhours"
)

type EmployeeDayURI struct {
	EmployeeID string `uri:"id" binding:"required,uuid"`
	Day        int    `uri:"day" binding:"min=0,max=6"`
}

type EmployeeURI struct {
	EmployeeID string `uri:"id" binding:"required,uuid"`
}

type UpsertTemplateRequest struct {
	StartTime  string  `json:"start_time" binding:"required"`
	EndTime    string  `json:"end_time" binding:"required"`
	BreakStart *string `json:"break_start"`
	BreakEnd   *string `json:"break_end"`
	IsActive   *bool   `json:"is_active"`
}

type TemplateResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	DayOfWeek  int     `json:"day_of_week"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	BreakStart *string `json:"break_start"`
	BreakEnd   *string `json:"break_end"`
	IsActive   bool    `json:"is_active"`
}

func NewTemplateResponse(t *workhours.Template) TemplateResponse {
	return TemplateResponse{
		ID:         t.ID,
		EmployeeID: t.EmployeeID,
		DayOfWeek:  int(t.DayOfWeek),
		StartTime:  t.StartTime,
		EndTime:    t.EndTime,
		BreakStart: t.BreakStart,
		BreakEnd:   t.BreakEnd,
		IsActive:   t.IsActive,
	}
}
