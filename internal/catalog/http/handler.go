package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/catalog"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/response"
)

type Handler struct {
	service catalog.Service
	logger  *zap.Logger
}

func NewHandler(service catalog.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) List(c *gin.Context) {
	var req ListUnitsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	filter := catalog.Filter{
		Kind:       catalog.Kind(req.Kind),
		TypeID:     req.TypeID,
		ActiveOnly: true,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}

	units, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	items := make([]UnitResponse, len(units))
	for i, u := range units {
		items[i] = NewUnitResponse(u)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NewUnitResponse(u))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateUnitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	u, err := h.service.Create(c.Request.Context(), catalog.CreateRequest{
		Kind:      catalog.Kind(body.Kind),
		TypeID:    body.TypeID,
		Name:      body.Name,
		BasePrice: body.BasePrice,
		Capacity:  body.Capacity,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, NewUnitResponse(u))
}
