package pricing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

type CreateRuleRequest struct {
	Type        RuleType
	ScopeTypeID *string
	Price       int64
	AppliesFri  bool
	AppliesSat  bool
	AppliesSun  bool
	StartDate   *time.Time
	EndDate     *time.Time
	Priority    int
}

type Service interface {
	CreateRule(ctx context.Context, req CreateRuleRequest) (*Rule, error)
	ListRules(ctx context.Context, filter Filter) ([]*Rule, int, error)
	SetRuleActive(ctx context.Context, id string, active bool) (*Rule, error)

	// PriceNights sums one resolved price per night of a stay.
	PriceNights(ctx context.Context, typeID string, base int64, checkIn, checkOut time.Time) (*Breakdown, error)
	// PriceSingle prices a one-off slot with a single lookup on its start date.
	PriceSingle(ctx context.Context, typeID string, base int64, at time.Time) (*Breakdown, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

// validate checks a rule before it is stored.
func (req CreateRuleRequest) validate() error {
	if req.Price < 0 {
		return ErrInvalidRule
	}
	switch req.Type {
	case RuleWeekend:
		if !req.AppliesFri && !req.AppliesSat && !req.AppliesSun {
			return ErrNoWeekendDays
		}
	case RuleHoliday, RuleSeasonal:
		if req.StartDate != nil && req.EndDate != nil && DateOnly(*req.StartDate).After(DateOnly(*req.EndDate)) {
			return ErrInvalidRange
		}
	default:
		return ErrInvalidRule
	}
	if req.ScopeTypeID != nil && *req.ScopeTypeID == "" {
		return ErrInvalidRule
	}
	return nil
}

func (s *service) CreateRule(ctx context.Context, req CreateRuleRequest) (*Rule, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	r := &Rule{
		Type:        req.Type,
		ScopeTypeID: req.ScopeTypeID,
		Price:       req.Price,
		AppliesFri:  req.AppliesFri,
		AppliesSat:  req.AppliesSat,
		AppliesSun:  req.AppliesSun,
		StartDate:   normalizeDate(req.StartDate),
		EndDate:     normalizeDate(req.EndDate),
		Priority:    req.Priority,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, apperror.Persistence(err)
	}

	s.logger.Info("price rule created",
		zap.String("rule_id", r.ID),
		zap.String("type", string(r.Type)),
		zap.Int("priority", r.Priority),
		zap.Int64("price", r.Price),
	)
	return r, nil
}

func (s *service) ListRules(ctx context.Context, filter Filter) ([]*Rule, int, error) {
	rules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Persistence(err)
	}
	return rules, total, nil
}

func (s *service) SetRuleActive(ctx context.Context, id string, active bool) (*Rule, error) {
	r, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	s.logger.Info("price rule toggled", zap.String("rule_id", id), zap.Bool("active", active))
	return r, nil
}

func (s *service) applicable(ctx context.Context, typeID string) ([]*Rule, error) {
	rules, err := s.repo.ListApplicable(ctx, typeID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return rules, nil
}

func (s *service) PriceNights(ctx context.Context, typeID string, base int64, checkIn, checkOut time.Time) (*Breakdown, error) {
	rules, err := s.applicable(ctx, typeID)
	if err != nil {
		return nil, err
	}
	return Nights(rules, typeID, base, checkIn, checkOut)
}

func (s *service) PriceSingle(ctx context.Context, typeID string, base int64, at time.Time) (*Breakdown, error) {
	rules, err := s.applicable(ctx, typeID)
	if err != nil {
		return nil, err
	}
	return Single(rules, typeID, base, at), nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOnly(*t)
	return &d
}
