package catalog

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, apperror.KindNotFound, "resource unit not found")
	ErrTypeNotFound = apperror.New(http.StatusNotFound, apperror.KindNotFound, "no active unit of this resource type")
	ErrInactive     = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "resource unit is not bookable")
	ErrInvalidUnit  = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "invalid resource unit")
)

// Kind is the category of a bookable unit.
type Kind string

const (
	KindRoom    Kind = "room"
	KindTable   Kind = "table"
	KindSpaSlot Kind = "spa_slot"
)

// Valid reports whether k is a known unit kind.
func (k Kind) Valid() bool {
	switch k {
	case KindRoom, KindTable, KindSpaSlot:
		return true
	}
	return false
}

// Unit represents a bookable entity (a room, a restaurant table or a spa slot).
// BasePrice is in minor currency units and is the fallback when no price rule matches.
type Unit struct {
	ID        string
	Kind      Kind
	TypeID    string
	Name      string
	BasePrice int64
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
}

// TypeSummary is what pricing needs to quote a resource type without a concrete unit.
type TypeSummary struct {
	TypeID    string
	Kind      Kind
	BasePrice int64
}

// Filter defines parameters for listing units.
type Filter struct {
	Kind       Kind
	TypeID     string
	ActiveOnly bool
	Page       int
	PageSize   int
}
