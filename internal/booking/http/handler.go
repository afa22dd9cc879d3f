package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/auth"
	"github.com/nekogravitycat/lodging-booking-backend/internal/booking"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
	logger  *zap.Logger
}

func NewHandler(service booking.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// actor builds the caller identity from the verified token.
func actor(c *gin.Context) booking.Actor {
	role := booking.RoleGuest
	if auth.IsAdmin(c) {
		role = booking.RoleAdmin
	}
	return booking.Actor{ID: auth.GetUserID(c), Role: role}
}

func (h *Handler) Quote(c *gin.Context) {
	var body QuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := booking.QuoteRequest{
		ResourceTypeID: body.ResourceTypeID,
		StartTime:      body.StartTime,
		EndTime:        derefTime(body.EndTime),
		PromoCode:      body.PromoCode,
	}

	q, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NewQuoteResponse(q))
}

func (h *Handler) Availability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	ok, err := h.service.CheckAvailability(c.Request.Context(), req.ResourceID, req.StartTime, req.EndTime, req.ExcludeBookingID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, AvailabilityResponse{Available: ok})
}

func (h *Handler) FreeSlots(c *gin.Context) {
	var req FreeSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	slots, err := h.service.FreeSlots(c.Request.Context(), req.ResourceID, req.StartTime, req.EndTime)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	items := make([]TimeSlotResponse, len(slots))
	for i, s := range slots {
		items[i] = TimeSlotResponse{StartTime: s.StartTime, EndTime: s.EndTime}
	}
	c.JSON(http.StatusOK, gin.H{"slots": items})
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, h.logger, err)
		return
	}

	bookings, total, err := h.service.List(c.Request.Context(), req.Filter(), actor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID, actor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	req, err := body.ToService()
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), req, actor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}
	var body UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.TransitionStatus(c.Request.Context(), uri.ID, booking.Status(body.Status), actor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) ModifyDates(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}
	var body ModifyDatesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.ModifyDates(c.Request.Context(), uri.ID, body.StartTime, derefTime(body.EndTime), actor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}
	var body CancelRequest
	// The body is optional; an empty one decodes to io.EOF.
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), uri.ID, body.Reason, actor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	b, err := h.service.RecordPayment(c.Request.Context(), uri.ID, actor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID, actor(c)); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AuditTrail(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	entries, err := h.service.AuditTrail(c.Request.Context(), uri.ID, actor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	items := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = NewAuditEntryResponse(e)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
