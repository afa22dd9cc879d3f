package promotion

import (
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound       = apperror.New(http.StatusUnprocessableEntity, apperror.KindPromotionNotFound, "promotion code not found")
	ErrInactive       = apperror.New(http.StatusUnprocessableEntity, apperror.KindPromotionInactive, "promotion code is not active")
	ErrExpired        = apperror.New(http.StatusUnprocessableEntity, apperror.KindPromotionExpired, "promotion code is not valid on this date")
	ErrInvalid        = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "invalid promotion")
	ErrPercentRange   = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "percentage discount must be between 0 and 100")
	ErrDuplicateCode  = apperror.New(http.StatusConflict, apperror.KindInvalidRequest, "promotion code already exists")
	ErrNegativeAmount = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "subtotal cannot be negative")
)

// DiscountType represents the type of discount.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Promotion is a discount code applied at booking time. Codes are unlimited-use.
// DiscountValue is a percentage (0-100) or a fixed amount in minor units.
type Promotion struct {
	ID            string
	Code          string
	DiscountType  DiscountType
	DiscountValue int64
	StartDate     *time.Time
	EndDate       *time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// Result is the outcome of applying a promotion to a subtotal.
type Result struct {
	Code       string
	Discount   int64
	FinalTotal int64
}

// NormalizeCode canonicalises a code for case-insensitive lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidOn reports whether date falls within the promotion's inclusive date window.
func (p *Promotion) ValidOn(date time.Time) bool {
	day := dateOnly(date)
	if p.StartDate != nil && day.Before(dateOnly(*p.StartDate)) {
		return false
	}
	if p.EndDate != nil && day.After(dateOnly(*p.EndDate)) {
		return false
	}
	return true
}

// Discount computes the discount for subtotal, never exceeding it.
func (p *Promotion) Discount(subtotal int64) int64 {
	var discount int64
	switch p.DiscountType {
	case DiscountPercentage:
		discount = subtotal * p.DiscountValue / 100
	case DiscountFixed:
		discount = p.DiscountValue
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// Apply validates p for bookingDate and applies it to subtotal.
func (p *Promotion) Apply(subtotal int64, bookingDate time.Time) (Result, error) {
	if subtotal < 0 {
		return Result{}, ErrNegativeAmount
	}
	if !p.IsActive {
		return Result{}, ErrInactive
	}
	if !p.ValidOn(bookingDate) {
		return Result{}, ErrExpired
	}
	discount := p.Discount(subtotal)
	return Result{Code: p.Code, Discount: discount, FinalTotal: subtotal - discount}, nil
}
