package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers availability and schedule routes.
// Booking is open to guests; lifecycle operations other than cancel need staff.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, optionalAuth, staffMiddleware, rateLimit gin.HandlerFunc) {
	g.GET("/services/:id/availability", rateLimit, h.Availability)

	group := g.Group("/schedules")
	group.POST("", rateLimit, optionalAuth, h.Create)

	authed := group.Group("")
	authed.Use(authMiddleware)
	{
		authed.GET("", h.List)
		authed.GET("/:id", h.Get)
		authed.POST("/:id/cancel", h.Cancel)
	}

	staff := authed.Group("")
	staff.Use(staffMiddleware)
	{
		staff.POST("/:id/assign", h.Assign)
		staff.POST("/:id/complete", h.Complete)
		staff.POST("/:id/no-show", h.NoShow)
		staff.PUT("/:id/reconcile", h.Reconcile)
	}
}
