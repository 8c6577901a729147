package http

import (
	"time"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
)

type AvailabilityQuery struct {
	Date       string `form:"date" binding:"required"`
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
}

type SlotResponse struct {
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

type AvailabilityResponse struct {
	ServiceName     string         `json:"service_name"`
	DurationMinutes int            `json:"duration_minutes"`
	Slots           []SlotResponse `json:"slots"`
	Message         string         `json:"message,omitempty"`
}

func NewAvailabilityResponse(a *schedule.Availability) AvailabilityResponse {
	slots := make([]SlotResponse, len(a.Slots))
	for i, s := range a.Slots {
		slots[i] = SlotResponse{Time: s.Time, Timestamp: s.Start}
	}
	return AvailabilityResponse{
		ServiceName:     a.ServiceName,
		DurationMinutes: a.DurationMins,
		Slots:           slots,
		Message:         a.Message,
	}
}

// CreateScheduleRequest leaves presence checks to the service so the
// response names every missing field at once.
type CreateScheduleRequest struct {
	ServiceID  string `json:"service_id" binding:"omitempty,uuid"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	EmployeeID string `json:"employee_id" binding:"omitempty,uuid"`
	GuestName  string `json:"guest_name" binding:"max=200"`
	GuestEmail string `json:"guest_email" binding:"max=320"`
	GuestPhone string `json:"guest_phone" binding:"max=50"`
	Notes      string `json:"notes" binding:"max=2000"`
	OrderID    string `json:"order_id" binding:"omitempty,uuid"`
	AutoAssign bool   `json:"auto_assign"`
}

type ListSchedulesRequest struct {
	request.ListParams
	UserID     string     `form:"user_id" binding:"omitempty,uuid"`
	EmployeeID string     `form:"employee_id" binding:"omitempty,uuid"`
	ServiceID  string     `form:"service_id" binding:"omitempty,uuid"`
	Status     string     `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED COMPLETED NO_SHOW"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy     string     `form:"sort_by" binding:"omitempty,oneof=start_at end_at created_at status"`
}

type ScheduleResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	ServiceID     *string   `json:"service_id"`
	ServiceName   string    `json:"service_name"`
	PriceCents    int64     `json:"price_cents"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	EmployeeID    *string   `json:"employee_id"`
	UserID        *string   `json:"user_id"`
	GuestName     *string   `json:"guest_name,omitempty"`
	GuestEmail    *string   `json:"guest_email,omitempty"`
	GuestPhone    *string   `json:"guest_phone,omitempty"`
	OrderID       *string   `json:"order_id"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedByRole string    `json:"created_by_role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewScheduleResponse(s *schedule.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:            s.ID,
		Type:          string(s.Type),
		Status:        string(s.Status),
		ServiceID:     s.ServiceID,
		ServiceName:   s.ServiceName,
		PriceCents:    s.PriceCents,
		StartAt:       s.StartAt,
		EndAt:         s.EndAt,
		EmployeeID:    s.EmployeeID,
		UserID:        s.UserID,
		GuestName:     s.GuestName,
		GuestEmail:    s.GuestEmail,
		GuestPhone:    s.GuestPhone,
		OrderID:       s.OrderID,
		Notes:         s.Notes,
		CreatedByRole: s.CreatedByRole,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

type CreateScheduleResponse struct {
	Success  bool             `json:"success"`
	Schedule ScheduleResponse `json:"schedule"`
}

type ChangeResponse struct {
	Changed  bool             `json:"changed"`
	Schedule ScheduleResponse `json:"schedule"`
}
