package payment

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/service-booking-backend/internal/schedule"
)

const SecretHeader = "X-Webhook-Secret"

type WebhookRequest struct {
	ScheduleID    string `json:"schedule_id" binding:"omitempty,uuid"`
	OrderID       string `json:"order_id" binding:"omitempty,uuid"`
	Action        string `json:"action" binding:"omitempty,oneof=CONFIRM CANCEL confirm cancel"`
	PaymentStatus string `json:"payment_status"`
}

type WebhookResponse struct {
	Changed    bool   `json:"changed"`
	ScheduleID string `json:"schedule_id"`
	Status     string `json:"status"`
}

type Handler struct {
	applier Applier
	secret  []byte
}

// NewHandler returns the webhook handler. An empty secret rejects every call.
func NewHandler(applier Applier, secret string) *Handler {
	return &Handler{applier: applier, secret: []byte(secret)}
}

func (h *Handler) authorized(c *gin.Context) bool {
	got := []byte(c.GetHeader(SecretHeader))
	return len(h.secret) > 0 && subtle.ConstantTimeCompare(got, h.secret) == 1
}

func (h *Handler) Webhook(c *gin.Context) {
	if !h.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	s, changed, err := h.applier.HandlePayment(c.Request.Context(), schedule.PaymentEvent{
		ScheduleID:    req.ScheduleID,
		OrderID:       req.OrderID,
		Action:        schedule.PaymentAction(req.Action),
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		metrics.IncPaymentEvent("webhook", "rejected")
		response.Error(c, err)
		return
	}

	metrics.IncPaymentEvent("webhook", "applied")
	zerolog.Ctx(c.Request.Context()).Info().
		Str("schedule_id", s.ID).
		Str("status", string(s.Status)).
		Bool("changed", changed).
		Msg("payment webhook applied")

	c.JSON(http.StatusOK, WebhookResponse{Changed: changed, ScheduleID: s.ID, Status: string(s.Status)})
}

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.POST("/payments/webhook", h.Webhook)
}
