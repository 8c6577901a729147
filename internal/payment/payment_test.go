package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
)

const scheduleID = "44444444-4444-4444-4444-444444444444"

type fakeApplier struct {
	got []schedule.PaymentEvent
	err error
}

func (f *fakeApplier) HandlePayment(_ context.Context, ev schedule.PaymentEvent) (*schedule.Schedule, bool, error) {
	f.got = append(f.got, ev)
	if f.err != nil {
		return nil, false, f.err
	}
	return &schedule.Schedule{ID: scheduleID, Status: schedule.StatusCancelled}, true, nil
}

func TestWebhook(t *testing.T) {
	gin.SetMode(gin.TestMode)

	post := func(h *Handler, secret string, body any) *httptest.ResponseRecorder {
		r := gin.New()
		RegisterRoutes(r.Group("/v1"), h)

		b, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set(SecretHeader, secret)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("applies event", func(t *testing.T) {
		app := &fakeApplier{}
		w := post(NewHandler(app, "s3cret"), "s3cret", gin.H{"schedule_id": scheduleID, "payment_status": "FAILED"})
		require.Equal(t, http.StatusOK, w.Code)

		var body WebhookResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Changed)
		assert.Equal(t, "CANCELLED", body.Status)
		require.Len(t, app.got, 1)
		assert.Equal(t, "FAILED", app.got[0].PaymentStatus)
	})

	t.Run("wrong or missing secret", func(t *testing.T) {
		app := &fakeApplier{}
		assert.Equal(t, http.StatusUnauthorized, post(NewHandler(app, "s3cret"), "nope", gin.H{}).Code)
		assert.Equal(t, http.StatusUnauthorized, post(NewHandler(app, "s3cret"), "", gin.H{}).Code)
		assert.Equal(t, http.StatusUnauthorized, post(NewHandler(app, ""), "", gin.H{}).Code, "unset secret disables the webhook")
		assert.Empty(t, app.got)
	})

	t.Run("bad action", func(t *testing.T) {
		app := &fakeApplier{}
		w := post(NewHandler(app, "s3cret"), "s3cret", gin.H{"schedule_id": scheduleID, "action": "REFUND"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, app.got)
	})

	t.Run("service error is mapped", func(t *testing.T) {
		app := &fakeApplier{err: schedule.ErrNotFound}
		w := post(NewHandler(app, "s3cret"), "s3cret", gin.H{"order_id": scheduleID, "action": "CONFIRM"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

type ackRecorder struct {
	acked, nacked, requeued bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}
func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func delivery(key, body string) (amqp.Delivery, *ackRecorder) {
	ack := &ackRecorder{}
	return amqp.Delivery{Acknowledger: ack, RoutingKey: key, Body: []byte(body)}, ack
}

func TestConsumer_HandleDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("status from routing key", func(t *testing.T) {
		app := &fakeApplier{}
		d, ack := delivery(KeyRefunded, `{"data":{"order_id":"o-1"}}`)
		NewConsumer(app, zerolog.Nop()).handleDelivery(ctx, d)

		assert.True(t, ack.acked)
		require.Len(t, app.got, 1)
		assert.Equal(t, "o-1", app.got[0].OrderID)
		assert.Equal(t, "REFUNDED", app.got[0].PaymentStatus)
	})

	t.Run("event field wins over routing key", func(t *testing.T) {
		app := &fakeApplier{}
		d, _ := delivery("payment.unknown", `{"event":"payment.paid","data":{"schedule_id":"s-1"}}`)
		NewConsumer(app, zerolog.Nop()).handleDelivery(ctx, d)

		require.Len(t, app.got, 1)
		assert.Equal(t, "PAID", app.got[0].PaymentStatus)
	})

	t.Run("undecodable is acked and dropped", func(t *testing.T) {
		for _, body := range []string{`not json`, `{"data":{}}`} {
			app := &fakeApplier{}
			d, ack := delivery(KeyPaid, body)
			NewConsumer(app, zerolog.Nop()).handleDelivery(ctx, d)
			assert.True(t, ack.acked, body)
			assert.Empty(t, app.got, body)
		}
	})

	t.Run("client errors are acked", func(t *testing.T) {
		app := &fakeApplier{err: schedule.ErrInvalidTransition}
		d, ack := delivery(KeyPaid, `{"data":{"schedule_id":"s-1"}}`)
		NewConsumer(app, zerolog.Nop()).handleDelivery(ctx, d)
		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
	})

	t.Run("internal errors are dead-lettered", func(t *testing.T) {
		app := &fakeApplier{err: errors.New("db down")}
		d, ack := delivery(KeyPaid, `{"data":{"schedule_id":"s-1"}}`)
		NewConsumer(app, zerolog.Nop()).handleDelivery(ctx, d)
		assert.False(t, ack.acked)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})
}

func TestConsumer_RunStopsWhenChannelCloses(t *testing.T) {
	app := &fakeApplier{}
	ch := make(chan amqp.Delivery, 1)
	d, ack := delivery(KeyFailed, `{"data":{"schedule_id":"s-1"}}`)
	ch <- d
	close(ch)

	err := NewConsumer(app, zerolog.Nop()).Run(context.Background(), ch)
	assert.NoError(t, err)
	assert.True(t, ack.acked)
	assert.Len(t, app.got, 1)
}
