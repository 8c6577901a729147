package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/employees/:id/availability")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.PUT("/:day", staffMiddleware, h.Upsert)
		group.DELETE("/:day", staffMiddleware, h.Delete)
	}
}
