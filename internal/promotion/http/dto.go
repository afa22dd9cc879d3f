package http

import (
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/lodging-booking-backend/internal/promotion"
)

const dateLayout = "2006-01-02"

type PromotionResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue int64     `json:"discount_value"`
	StartDate     *string   `json:"start_date"`
	EndDate       *string   `json:"end_date"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func NewPromotionResponse(p *promotion.Promotion) PromotionResponse {
	return PromotionResponse{
		ID:            p.ID,
		Code:          p.Code,
		DiscountType:  string(p.DiscountType),
		DiscountValue: p.DiscountValue,
		StartDate:     formatDate(p.StartDate),
		EndDate:       formatDate(p.EndDate),
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
}

type ListPromotionsRequest struct {
	request.ListParams
}

type CreatePromotionRequest struct {
	Code          string  `json:"code" binding:"required,max=50"`
	DiscountType  string  `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue int64   `json:"discount_value" binding:"min=0"`
	StartDate     *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate       *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

func (r *CreatePromotionRequest) ToService() promotion.CreateRequest {
	return promotion.CreateRequest{
		Code:          r.Code,
		DiscountType:  promotion.DiscountType(r.DiscountType),
		DiscountValue: r.DiscountValue,
		StartDate:     parseDate(r.StartDate),
		EndDate:       parseDate(r.EndDate),
	}
}

func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}
