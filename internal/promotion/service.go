package promotion

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

type CreateRequest struct {
	Code          string
	DiscountType  DiscountType
	DiscountValue int64
	StartDate     *time.Time
	EndDate       *time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Promotion, error)
	List(ctx context.Context, page, pageSize int) ([]*Promotion, int, error)
	// Apply looks code up and applies it to subtotal as of bookingDate. It has no side effects.
	Apply(ctx context.Context, subtotal int64, code string, bookingDate time.Time) (Result, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Promotion, error) {
	code := NormalizeCode(req.Code)
	if code == "" || req.DiscountValue < 0 {
		return nil, ErrInvalid
	}
	switch req.DiscountType {
	case DiscountPercentage:
		if req.DiscountValue > 100 {
			return nil, ErrPercentRange
		}
	case DiscountFixed:
	default:
		return nil, ErrInvalid
	}
	if req.StartDate != nil && req.EndDate != nil && dateOnly(*req.StartDate).After(dateOnly(*req.EndDate)) {
		return nil, ErrInvalid
	}

	p := &Promotion{
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperror.Persistence(err)
	}

	s.logger.Info("promotion created", zap.String("code", p.Code), zap.String("type", string(p.DiscountType)))
	return p, nil
}

func (s *service) List(ctx context.Context, page, pageSize int) ([]*Promotion, int, error) {
	promos, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, apperror.Persistence(err)
	}
	return promos, total, nil
}

func (s *service) Apply(ctx context.Context, subtotal int64, code string, bookingDate time.Time) (Result, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Result{}, ErrNotFound
	}

	p, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		return Result{}, apperror.Persistence(err)
	}
	return p.Apply(subtotal, bookingDate)
}
