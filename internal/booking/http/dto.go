package http

import (
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/audit"
	"github.com/nekogravitycat/lodging-booking-backend/internal/booking"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID    string     `form:"resource_id" binding:"omitempty,uuid"`
	Kind          string     `form:"kind" binding:"omitempty,oneof=room restaurant spa"`
	Status        string     `form:"status" binding:"omitempty,oneof=pending_payment confirmed checked_in checked_out completed cancelled"`
	UserID        string     `form:"user_id"`
	StartTimeFrom *time.Time `form:"start_time_from" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTimeTo   *time.Time `form:"start_time_to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.StartTimeFrom != nil && r.StartTimeTo != nil && r.StartTimeFrom.After(*r.StartTimeTo) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

func (r *ListBookingsRequest) Filter() booking.Filter {
	return booking.Filter{
		UserID:     r.UserID,
		ResourceID: r.ResourceID,
		Kind:       booking.Kind(r.Kind),
		Status:     booking.Status(r.Status),
		StartTime:  r.StartTimeFrom,
		EndTime:    r.StartTimeTo,
		Page:       r.Page,
		PageSize:   r.PageSize,
		SortOrder:  r.SortOrder,
	}
}

type RoomDetailsBody struct {
	Adults   int `json:"adults" binding:"min=0"`
	Children int `json:"children" binding:"min=0"`
}

type RestaurantDetailsBody struct {
	PartySize int    `json:"party_size" binding:"min=0"`
	Occasion  string `json:"occasion" binding:"max=100"`
}

type SpaDetailsBody struct {
	Guests              int    `json:"guests" binding:"min=0"`
	TherapistPreference string `json:"therapist_preference" binding:"max=100"`
}

// CreateBookingRequest carries exactly one of Room, Restaurant or Spa.
type CreateBookingRequest struct {
	ResourceID      string                 `json:"resource_id" binding:"required,uuid"`
	UserID          string                 `json:"user_id"`
	StartTime       time.Time              `json:"start_time" binding:"required"`
	EndTime         *time.Time             `json:"end_time"`
	PromoCode       string                 `json:"promo_code" binding:"max=50"`
	SpecialRequests string                 `json:"special_requests" binding:"max=1000"`
	Room            *RoomDetailsBody       `json:"room"`
	Restaurant      *RestaurantDetailsBody `json:"restaurant"`
	Spa             *SpaDetailsBody        `json:"spa"`
}

func (r *CreateBookingRequest) details() (booking.Details, error) {
	var d booking.Details
	n := 0
	if r.Room != nil {
		d = booking.RoomDetails{Adults: r.Room.Adults, Children: r.Room.Children}
		n++
	}
	if r.Restaurant != nil {
		d = booking.RestaurantDetails{PartySize: r.Restaurant.PartySize, Occasion: r.Restaurant.Occasion}
		n++
	}
	if r.Spa != nil {
		d = booking.SpaDetails{Guests: r.Spa.Guests, TherapistPreference: r.Spa.TherapistPreference}
		n++
	}
	if n != 1 {
		return nil, booking.ErrInvalidInput
	}
	return d, nil
}

// ToService converts the body into a service request.
func (r *CreateBookingRequest) ToService() (booking.CreateRequest, error) {
	d, err := r.details()
	if err != nil {
		return booking.CreateRequest{}, err
	}
	return booking.CreateRequest{
		ResourceID:      r.ResourceID,
		UserID:          r.UserID,
		StartTime:       r.StartTime,
		EndTime:         derefTime(r.EndTime),
		Details:         d,
		PromoCode:       r.PromoCode,
		SpecialRequests: r.SpecialRequests,
	}, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ModifyDatesRequest struct {
	StartTime time.Time  `json:"start_time" binding:"required"`
	EndTime   *time.Time `json:"end_time"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type QuoteRequest struct {
	ResourceTypeID string     `json:"resource_type_id" binding:"required"`
	StartTime      time.Time  `json:"start_time" binding:"required"`
	EndTime        *time.Time `json:"end_time"`
	PromoCode      string     `json:"promo_code" binding:"max=50"`
}

type QuoteResponse struct {
	ResourceTypeID string              `json:"resource_type_id"`
	Kind           string              `json:"kind"`
	Nights         int                 `json:"nights,omitempty"`
	Subtotal       int64               `json:"subtotal"`
	Discount       int64               `json:"discount"`
	Total          int64               `json:"total"`
	PromoCode      string              `json:"promo_code,omitempty"`
	Lines          []PriceLineResponse `json:"lines"`
}

type PriceLineResponse struct {
	Date   string `json:"date"`
	Price  int64  `json:"price"`
	RuleID string `json:"rule_id,omitempty"`
}

func NewQuoteResponse(q *booking.Quote) QuoteResponse {
	lines := make([]PriceLineResponse, len(q.Lines))
	for i, l := range q.Lines {
		lines[i] = PriceLineResponse{Date: l.Date.Format("2006-01-02"), Price: l.Price, RuleID: l.RuleID}
	}
	return QuoteResponse{
		ResourceTypeID: q.ResourceTypeID,
		Kind:           string(q.Kind),
		Nights:         q.Nights,
		Subtotal:       q.Subtotal,
		Discount:       q.Discount,
		Total:          q.Total,
		PromoCode:      q.PromoCode,
		Lines:          lines,
	}
}

type AvailabilityRequest struct {
	ResourceID       string    `form:"resource_id" binding:"required,uuid"`
	StartTime        time.Time `form:"start_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime          time.Time `form:"end_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	ExcludeBookingID string    `form:"exclude_booking_id" binding:"omitempty,uuid"`
}

type FreeSlotsRequest struct {
	ResourceID string    `form:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `form:"start_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime    time.Time `form:"end_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

type TimeSlotResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type BookingResponse struct {
	ID               string          `json:"id"`
	Kind             string          `json:"kind"`
	ResourceID       string          `json:"resource_id"`
	UserID           string          `json:"user_id"`
	ConfirmationCode string          `json:"confirmation_code"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	Details          booking.Details `json:"details"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"payment_status"`
	Subtotal         int64           `json:"subtotal"`
	Discount         int64           `json:"discount"`
	TotalAmount      int64           `json:"total_amount"`
	PromoCode        *string         `json:"promo_code"`
	SpecialRequests  string          `json:"special_requests"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		Kind:             string(b.Kind),
		ResourceID:       b.ResourceID,
		UserID:           b.UserID,
		ConfirmationCode: b.ConfirmationCode,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		Details:          b.Details,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		Subtotal:         b.Subtotal,
		Discount:         b.Discount,
		TotalAmount:      b.TotalAmount,
		PromoCode:        b.PromoCode,
		SpecialRequests:  b.SpecialRequests,
		Version:          b.Version,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

type AuditEntryResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func NewAuditEntryResponse(e *audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID,
		ActorID:   e.ActorID,
		ActorRole: e.ActorRole,
		Action:    string(e.Action),
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
