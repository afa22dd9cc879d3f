package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/lodging-booking-backend/internal/promotion"
)

type Handler struct {
	service promotion.Service
	logger  *zap.Logger
}

func NewHandler(service promotion.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) List(c *gin.Context) {
	var req ListPromotionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	promos, total, err := h.service.List(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	items := make([]PromotionResponse, len(promos))
	for i, p := range promos {
		items[i] = NewPromotionResponse(p)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreatePromotionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), body.ToService())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, NewPromotionResponse(p))
}
