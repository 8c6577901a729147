package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
)

// Message is the body of a payment.* event.
type Message struct {
	Event string `json:"event"`
	Data  struct {
		ScheduleID string `json:"schedule_id"`
		OrderID    string `json:"order_id"`
	} `json:"data"`
}

type Consumer struct {
	applier Applier
	logger  zerolog.Logger
}

func NewConsumer(applier Applier, logger zerolog.Logger) *Consumer {
	return &Consumer{applier: applier, logger: logger.With().Str("component", "payment_consumer").Logger()}
}

// Run handles deliveries until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks messages that are done or can never succeed, and
// nacks without requeue the ones that failed for transient reasons.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	log := c.logger.With().Str("routing_key", d.RoutingKey).Str("message_id", d.MessageId).Logger()
	ctx = log.WithContext(ctx)

	ev, err := decode(d)
	if err != nil {
		metrics.IncPaymentEvent("amqp", "dropped")
		log.Warn().Err(err).Msg("dropping undecodable payment event")
		_ = d.Ack(false)
		return
	}

	s, changed, err := c.applier.HandlePayment(ctx, ev)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError {
			metrics.IncPaymentEvent("amqp", "rejected")
			log.Warn().Err(err).Str("schedule_id", ev.ScheduleID).Str("order_id", ev.OrderID).Msg("payment event rejected")
			_ = d.Ack(false)
			return
		}
		metrics.IncPaymentEvent("amqp", "failed")
		log.Error().Err(err).Msg("payment event failed, dead-lettering")
		_ = d.Nack(false, false)
		return
	}

	metrics.IncPaymentEvent("amqp", "applied")
	log.Info().Str("schedule_id", s.ID).Str("status", string(s.Status)).Bool("changed", changed).Msg("payment event applied")
	_ = d.Ack(false)
}

func decode(d amqp.Delivery) (schedule.PaymentEvent, error) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return schedule.PaymentEvent{}, fmt.Errorf("unmarshal body: %w", err)
	}

	key := d.RoutingKey
	if msg.Event != "" {
		key = msg.Event
	}
	status, ok := keyStatus[key]
	if !ok {
		return schedule.PaymentEvent{}, fmt.Errorf("unknown payment event %q", key)
	}
	if msg.Data.ScheduleID == "" && msg.Data.OrderID == "" {
		return schedule.PaymentEvent{}, errors.New("event has neither schedule_id nor order_id")
	}

	return schedule.PaymentEvent{
		ScheduleID:    msg.Data.ScheduleID,
		OrderID:       msg.Data.OrderID,
		PaymentStatus: string(status),
	}, nil
}
