package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers catalog routes. Reads are public; writes require an admin.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/services")

	group.GET("", h.List)
	group.GET("/:id", h.Get)

	admin := group.Group("")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("", h.Create)
		admin.PATCH("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}
