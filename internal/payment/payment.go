// Package payment turns payment outcomes from the payment subsystem into
// schedule status changes. Events arrive by webhook or over AMQP.
package payment

import (
	"context"

	"github.com/nekogravitycat/service-booking-backend/internal/order"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
)

// Applier applies a payment outcome to a schedule. Implemented by schedule.Service.
type Applier interface {
	HandlePayment(ctx context.Context, ev schedule.PaymentEvent) (*schedule.Schedule, bool, error)
}

// Routing keys published by the payment subsystem.
const (
	KeyPaid      = "payment.paid"
	KeyFailed    = "payment.failed"
	KeyCancelled = "payment.cancelled"
	KeyRefunded  = "payment.refunded"
)

var RoutingKeys = []string{KeyPaid, KeyFailed, KeyCancelled, KeyRefunded}

var keyStatus = map[string]order.Status{
	KeyPaid:      order.StatusPaid,
	KeyFailed:    order.StatusFailed,
	KeyCancelled: order.StatusCancelled,
	KeyRefunded:  order.StatusRefunded,
}
