package schedule

import (
	"context"
	"strings"
	"time"
)

// Notifier publishes schedule events for the notification service.
type Notifier interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// NopNotifier drops every event. Used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) PublishJSON(context.Context, string, any) error { return nil }

const RoutingKeyCreated = "schedule.created"

// RoutingKey returns the routing key announcing a move to status, e.g. "schedule.cancelled".
func RoutingKey(status Status) string {
	return "schedule." + strings.ToLower(string(status))
}

// ScheduleEvent is the message body published for every schedule change.
type ScheduleEvent struct {
	ScheduleID  string    `json:"schedule_id"`
	Status      Status    `json:"status"`
	ServiceID   *string   `json:"service_id,omitempty"`
	ServiceName string    `json:"service_name"`
	EmployeeID  *string   `json:"employee_id,omitempty"`
	UserID      *string   `json:"user_id,omitempty"`
	GuestEmail  *string   `json:"guest_email,omitempty"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func newScheduleEvent(s *Schedule, at time.Time) ScheduleEvent {
	return ScheduleEvent{
		ScheduleID:  s.ID,
		Status:      s.Status,
		ServiceID:   s.ServiceID,
		ServiceName: s.ServiceName,
		EmployeeID:  s.EmployeeID,
		UserID:      s.UserID,
		GuestEmail:  s.GuestEmail,
		StartAt:     s.StartAt,
		EndAt:       s.EndAt,
		OccurredAt:  at,
	}
}
