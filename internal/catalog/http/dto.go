package http

import (
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/catalog"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/request"
)

// UnitTag is the compact unit reference embedded in other responses.
type UnitTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UnitResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	TypeID    string    `json:"type_id"`
	Name      string    `json:"name"`
	BasePrice int64     `json:"base_price"`
	Capacity  int       `json:"capacity"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUnitResponse(u *catalog.Unit) UnitResponse {
	return UnitResponse{
		ID:        u.ID,
		Kind:      string(u.Kind),
		TypeID:    u.TypeID,
		Name:      u.Name,
		BasePrice: u.BasePrice,
		Capacity:  u.Capacity,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// ListUnitsRequest defines query parameters for listing units.
type ListUnitsRequest struct {
	request.ListParams
	Kind   string `form:"kind" binding:"omitempty,oneof=room table spa_slot"`
	TypeID string `form:"type_id"`
}

type CreateUnitRequest struct {
	Kind      string `json:"kind" binding:"required,oneof=room table spa_slot"`
	TypeID    string `json:"type_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	BasePrice int64  `json:"base_price" binding:"min=0"`
	Capacity  int    `json:"capacity" binding:"required,min=1"`
}
