package http

import (
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pricing"
)

const dateLayout = "2006-01-02"

type RuleResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"rule_type"`
	ScopeTypeID *string   `json:"scope_type_id"`
	Price       int64     `json:"price"`
	AppliesFri  bool      `json:"applies_fri"`
	AppliesSat  bool      `json:"applies_sat"`
	AppliesSun  bool      `json:"applies_sun"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	Priority    int       `json:"priority"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func NewRuleResponse(r *pricing.Rule) RuleResponse {
	return RuleResponse{
		ID:          r.ID,
		Type:        string(r.Type),
		ScopeTypeID: r.ScopeTypeID,
		Price:       r.Price,
		AppliesFri:  r.AppliesFri,
		AppliesSat:  r.AppliesSat,
		AppliesSun:  r.AppliesSun,
		StartDate:   formatDate(r.StartDate),
		EndDate:     formatDate(r.EndDate),
		Priority:    r.Priority,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}
}

// ListRulesRequest defines query parameters for listing price rules.
type ListRulesRequest struct {
	request.ListParams
	ScopeTypeID string `form:"scope_type_id"`
	ActiveOnly  bool   `form:"active_only"`
}

type CreateRuleRequest struct {
	Type        string  `json:"rule_type" binding:"required,oneof=weekend holiday seasonal"`
	ScopeTypeID *string `json:"scope_type_id"`
	Price       int64   `json:"price" binding:"min=0"`
	AppliesFri  bool    `json:"applies_fri"`
	AppliesSat  bool    `json:"applies_sat"`
	AppliesSun  bool    `json:"applies_sun"`
	StartDate   *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Priority    int     `json:"priority"`
}

// ToService converts the body into a service request. Dates were validated by binding.
func (r *CreateRuleRequest) ToService() pricing.CreateRuleRequest {
	return pricing.CreateRuleRequest{
		Type:        pricing.RuleType(r.Type),
		ScopeTypeID: r.ScopeTypeID,
		Price:       r.Price,
		AppliesFri:  r.AppliesFri,
		AppliesSat:  r.AppliesSat,
		AppliesSun:  r.AppliesSun,
		StartDate:   parseDate(r.StartDate),
		EndDate:     parseDate(r.EndDate),
		Priority:    r.Priority,
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

type UpdateRuleRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
