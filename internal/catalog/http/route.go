package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers catalog routes. Reads are public; creating units requires an administrator.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/units")

	group.GET("", h.List)
	group.GET("/:id", h.Get)

	// === Admin Routes ===
	group.POST("", authMiddleware, adminMiddleware, h.Create)
}
