package booking

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/catalog"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pricing"
)

var (
	ErrNotFound                = apperror.New(http.StatusNotFound, apperror.KindNotFound, "booking not found")
	ErrInvalidTimeRange        = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "interval end must be after interval start")
	ErrInvalidPartySize        = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "party size must be at least 1")
	ErrExceedsCapacity         = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "party size exceeds unit capacity")
	ErrDetailsMismatch         = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "booking details do not match the unit kind")
	ErrInvalidInput            = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "invalid input parameters")
	ErrResourceUnavailable     = apperror.New(http.StatusConflict, apperror.KindResourceUnavailable, "resource is not available for the requested interval")
	ErrIllegalTransition       = apperror.New(http.StatusConflict, apperror.KindIllegalTransition, "status transition is not allowed")
	ErrNoOpTransition          = apperror.New(http.StatusConflict, apperror.KindNoOpTransition, "booking already has this status")
	ErrNotReschedulable        = apperror.New(http.StatusConflict, apperror.KindIllegalTransition, "booking can no longer be rescheduled")
	ErrPaymentNotAllowed       = apperror.New(http.StatusConflict, apperror.KindIllegalTransition, "payment cannot be recorded for this booking")
	ErrAlreadyPaid             = apperror.New(http.StatusConflict, apperror.KindNoOpTransition, "booking is already paid")
	ErrPermissionDenied        = apperror.New(http.StatusForbidden, apperror.KindPermissionDenied, "permission denied")
	ErrCodeGenerationExhausted = apperror.New(http.StatusInternalServerError, apperror.KindCodeGenerationExhausted, "could not allocate a unique confirmation code")
)

// Kind is the booking variant. It decides the lifecycle, the pricing mode and the code prefix.
type Kind string

const (
	KindRoom       Kind = "room"
	KindRestaurant Kind = "restaurant"
	KindSpa        Kind = "spa"
)

// KindForUnit maps a catalog unit kind to the booking kind it accepts.
func KindForUnit(k catalog.Kind) (Kind, bool) {
	switch k {
	case catalog.KindRoom:
		return KindRoom, true
	case catalog.KindTable:
		return KindRestaurant, true
	case catalog.KindSpaSlot:
		return KindSpa, true
	}
	return "", false
}

// CodePrefix returns the confirmation code prefix of k.
func (k Kind) CodePrefix() string {
	switch k {
	case KindRoom:
		return "RM"
	case KindRestaurant:
		return "RS"
	case KindSpa:
		return "SP"
	}
	return ""
}

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCheckedIn      Status = "checked_in"
	StatusCheckedOut     Status = "checked_out"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleAdmin Role = "admin"
)

// Actor is the caller on whose behalf an operation runs.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Details holds the kind-specific part of a booking.
type Details interface {
	Kind() Kind
	// Party is the number of people the booking is for.
	Party() int
}

type RoomDetails struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

func (RoomDetails) Kind() Kind { return KindRoom }
func (d RoomDetails) Party() int { return d.Adults + d.Children }

type RestaurantDetails struct {
	PartySize int    `json:"party_size"`
	Occasion  string `json:"occasion,omitempty"`
}

func (RestaurantDetails) Kind() Kind { return KindRestaurant }
func (d RestaurantDetails) Party() int { return d.PartySize }

type SpaDetails struct {
	Guests              int    `json:"guests"`
	TherapistPreference string `json:"therapist_preference,omitempty"`
}

func (SpaDetails) Kind() Kind { return KindSpa }
func (d SpaDetails) Party() int { return d.Guests }

// DecodeDetails parses the stored JSON details of a booking of kind k.
func DecodeDetails(k Kind, raw []byte) (Details, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch k {
	case KindRoom:
		var d RoomDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case KindRestaurant:
		var d RestaurantDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case KindSpa:
		var d SpaDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	}
	return nil, fmt.Errorf("unknown booking kind %q", k)
}

// Booking is a reservation of one resource unit over a half-open interval [StartTime, EndTime).
// Amounts are in minor currency units.
type Booking struct {
	ID               string
	Kind             Kind
	ResourceID       string
	UserID           string
	ConfirmationCode string
	StartTime        time.Time
	EndTime          time.Time
	Details          Details
	Status           Status
	PaymentStatus    PaymentStatus
	Subtotal         int64
	Discount         int64
	TotalAmount      int64
	PromoCode        *string
	SpecialRequests  string
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Blocks reports whether b occupies its resource.
func (b *Booking) Blocks() bool {
	return b.Status != StatusCancelled
}

// Conflicts reports whether b blocks its resource anywhere in [start, end).
func (b *Booking) Conflicts(start, end time.Time) bool {
	return b.Blocks() && Overlaps(b.StartTime, b.EndTime, start, end)
}

type Filter struct {
	UserID     string
	ResourceID string
	Kind       Kind
	Status     Status
	StartTime  *time.Time // bookings ending after this time
	EndTime    *time.Time // bookings starting before this time
	Page       int
	PageSize   int
	SortOrder  string
}

// Quote is a price estimate for a resource type and interval.
type Quote struct {
	ResourceTypeID string
	Kind           Kind
	Nights         int
	Subtotal       int64
	Discount       int64
	Total          int64
	PromoCode      string
	Lines          []pricing.Line
}
