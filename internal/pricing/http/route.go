package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers price rule administration routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/price-rules")

	// === Admin Routes ===
	group.Use(authMiddleware, adminMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Update)
	}
}
