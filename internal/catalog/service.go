package catalog

import (
	"context"
	"strings"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

type CreateRequest struct {
	Kind      Kind
	TypeID    string
	Name      string
	BasePrice int64
	Capacity  int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Unit, error)
	GetByID(ctx context.Context, id string) (*Unit, error)
	// GetBookable returns the unit only if it can currently accept bookings.
	GetBookable(ctx context.Context, id string) (*Unit, error)
	List(ctx context.Context, filter Filter) ([]*Unit, int, error)
	TypeSummary(ctx context.Context, typeID string) (*TypeSummary, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Unit, error) {
	if !req.Kind.Valid() || strings.TrimSpace(req.TypeID) == "" || strings.TrimSpace(req.Name) == "" ||
		req.BasePrice < 0 || req.Capacity < 1 {
		return nil, ErrInvalidUnit
	}

	u := &Unit{
		Kind:      req.Kind,
		TypeID:    strings.TrimSpace(req.TypeID),
		Name:      strings.TrimSpace(req.Name),
		BasePrice: req.BasePrice,
		Capacity:  req.Capacity,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperror.Persistence(err)
	}
	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Unit, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return u, nil
}

func (s *service) GetBookable(ctx context.Context, id string) (*Unit, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Unit, int, error) {
	units, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Persistence(err)
	}
	return units, total, nil
}

func (s *service) TypeSummary(ctx context.Context, typeID string) (*TypeSummary, error) {
	sum, err := s.repo.TypeSummary(ctx, typeID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return sum, nil
}
