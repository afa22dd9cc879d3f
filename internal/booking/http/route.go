package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers quoting, availability and booking routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	g.POST("/quotes", h.Quote)
	g.GET("/availability", h.Availability)
	g.GET("/availability/free", h.FreeSlots)

	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.GET("/:id", h.Get)
		group.PATCH("/:id/status", h.UpdateStatus)
		group.PATCH("/:id/dates", h.ModifyDates)
		group.POST("/:id/cancel", h.Cancel)

		// === Admin Routes ===
		group.POST("/:id/payment", adminMiddleware, h.RecordPayment)
		group.DELETE("/:id", adminMiddleware, h.Delete)
		group.GET("/:id/audit", adminMiddleware, h.AuditTrail)
	}
}
