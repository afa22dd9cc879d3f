package pricing

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, apperror.KindNotFound, "price rule not found")
	ErrInvalidRule   = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "invalid price rule")
	ErrNoWeekendDays = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "weekend rule must apply to at least one day")
	ErrInvalidRange  = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "start date must not be after end date")
	ErrEmptyInterval = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "interval must cover at least one night")
)

type RuleType string

const (
	RuleWeekend  RuleType = "weekend"
	RuleHoliday  RuleType = "holiday"
	RuleSeasonal RuleType = "seasonal"
)

// Rule overrides a resource type's base price on matching dates.
// A nil ScopeTypeID applies to every resource type. Lower Priority wins.
type Rule struct {
	ID          string
	Type        RuleType
	ScopeTypeID *string
	Price       int64
	AppliesFri  bool
	AppliesSat  bool
	AppliesSun  bool
	StartDate   *time.Time
	EndDate     *time.Time
	Priority    int
	IsActive    bool
	CreatedAt   time.Time
}

// Line is the resolved price for one night or one service slot.
type Line struct {
	Date   time.Time
	Price  int64
	RuleID string // empty when the base price was used
}

// Breakdown is the itemised result of pricing an interval.
type Breakdown struct {
	Lines    []Line
	Subtotal int64
}

// Filter defines parameters for listing rules.
type Filter struct {
	ScopeTypeID string
	ActiveOnly  bool
	Page        int
	PageSize    int
}
