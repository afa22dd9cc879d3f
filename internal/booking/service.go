package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/audit"
	"github.com/nekogravitycat/lodging-booking-backend/internal/catalog"
	"github.com/nekogravitycat/lodging-booking-backend/internal/notify"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pricing"
	"github.com/nekogravitycat/lodging-booking-backend/internal/promotion"
)

var ErrUnknownResource = apperror.New(http.StatusBadRequest, apperror.KindInvalidRequest, "resource unit does not exist")

const notifyTimeout = 5 * time.Second

// Settings are the tunables of the booking engine.
type Settings struct {
	CodeMaxAttempts           int
	RestaurantSeatingDuration time.Duration
	SpaSessionDuration        time.Duration
}

type CreateRequest struct {
	ResourceID string
	// UserID lets administrators book on behalf of a guest. Ignored for guests.
	UserID          string
	StartTime       time.Time
	EndTime         time.Time // optional for restaurant and spa bookings
	Details         Details
	PromoCode       string
	SpecialRequests string
}

type QuoteRequest struct {
	ResourceTypeID string
	StartTime      time.Time
	EndTime        time.Time
	PromoCode      string
}

type Service interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	Create(ctx context.Context, req CreateRequest, actor Actor) (*Booking, error)
	// CheckAvailability reports whether resourceID is free over [start, end), ignoring excludeBookingID.
	CheckAvailability(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error)
	FreeSlots(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]TimeSlot, error)
	GetByID(ctx context.Context, id string, actor Actor) (*Booking, error)
	List(ctx context.Context, filter Filter, actor Actor) ([]*Booking, int, error)
	TransitionStatus(ctx context.Context, id string, target Status, actor Actor) (*Booking, error)
	ModifyDates(ctx context.Context, id string, start, end time.Time, actor Actor) (*Booking, error)
	Cancel(ctx context.Context, id, reason string, actor Actor) (*Booking, error)
	RecordPayment(ctx context.Context, id string, actor Actor) (*Booking, error)
	Delete(ctx context.Context, id string, actor Actor) error
	AuditTrail(ctx context.Context, id string, actor Actor) ([]*audit.Entry, error)
}

type service struct {
	repo     Repository
	units    catalog.Service
	prices   pricing.Service
	promos   promotion.Service
	notifier notify.Notifier
	codes    CodeGenerator
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*service)

// WithClock replaces the wall clock used for booking dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *service) { s.codes = g }
}

func NewService(
	repo Repository,
	units catalog.Service,
	prices pricing.Service,
	promos promotion.Service,
	notifier notify.Notifier,
	settings Settings,
	logger *zap.Logger,
	opts ...Option,
) Service {
	s := &service{
		repo:     repo,
		units:    units,
		prices:   prices,
		promos:   promos,
		notifier: notifier,
		codes:    NewCodeGenerator(),
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.settings.CodeMaxAttempts < 1 {
		s.settings.CodeMaxAttempts = 1
	}
	return s
}

// interval normalises a requested interval for kind k. Room stays are whole UTC
// calendar days; restaurant and spa bookings get a default length when end is omitted.
func (s *service) interval(k Kind, start, end time.Time) (time.Time, time.Time, error) {
	start = start.UTC()
	end = end.UTC()

	switch k {
	case KindRoom:
		start, end = pricing.DateOnly(start), pricing.DateOnly(end)
	case KindRestaurant:
		if end.IsZero() {
			end = start.Add(s.settings.RestaurantSeatingDuration)
		}
	case KindSpa:
		if end.IsZero() {
			end = start.Add(s.settings.SpaSessionDuration)
		}
	}

	if start.IsZero() || !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidTimeRange
	}
	return start, end, nil
}

// price returns the subtotal breakdown: one line per night for rooms, a single lookup otherwise.
func (s *service) price(ctx context.Context, k Kind, typeID string, base int64, start, end time.Time) (*pricing.Breakdown, error) {
	if k == KindRoom {
		return s.prices.PriceNights(ctx, typeID, base, start, end)
	}
	return s.prices.PriceSingle(ctx, typeID, base, start)
}

// discount applies code, if any, as of bookingDate.
func (s *service) discount(ctx context.Context, subtotal int64, code string, bookingDate time.Time) (promotion.Result, error) {
	if code == "" {
		return promotion.Result{Discount: 0, FinalTotal: subtotal}, nil
	}
	return s.promos.Apply(ctx, subtotal, code, bookingDate)
}

// priced is a subtotal and discount computed before a unit of work opens.
// A unit of work must not acquire a second pool connection, and the booking
// flow never writes rules or promotions.
type priced struct {
	breakdown *pricing.Breakdown
	result    promotion.Result
	err       error
}

// priceFor prices [start, end) and applies code as of bookingDate. Domain
// rejections are kept in priced.err so callers can report them after the
// availability check; infrastructure failures are returned directly.
func (s *service) priceFor(ctx context.Context, k Kind, typeID string, base int64, start, end time.Time, code string, bookingDate time.Time) (priced, error) {
	breakdown, err := s.price(ctx, k, typeID, base, start, end)
	if err == nil {
		var res promotion.Result
		res, err = s.discount(ctx, breakdown.Subtotal, code, bookingDate)
		if err == nil {
			return priced{breakdown: breakdown, result: res}, nil
		}
	}
	switch apperror.KindOf(err) {
	case apperror.KindTimeout, apperror.KindPersistenceFailure:
		return priced{}, apperror.Persistence(err)
	}
	return priced{err: err}, nil
}

func (s *service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	summary, err := s.units.TypeSummary(ctx, req.ResourceTypeID)
	if err != nil {
		return nil, err
	}
	kind, ok := KindForUnit(summary.Kind)
	if !ok {
		return nil, ErrInvalidInput
	}

	start, end, err := s.interval(kind, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.price(ctx, kind, summary.TypeID, summary.BasePrice, start, end)
	if err != nil {
		return nil, err
	}
	res, err := s.discount(ctx, breakdown.Subtotal, req.PromoCode, s.now())
	if err != nil {
		return nil, err
	}

	q := &Quote{
		ResourceTypeID: summary.TypeID,
		Kind:           kind,
		Subtotal:       breakdown.Subtotal,
		Discount:       res.Discount,
		Total:          res.FinalTotal,
		PromoCode:      res.Code,
		Lines:          breakdown.Lines,
	}
	if kind == KindRoom {
		q.Nights = len(breakdown.Lines)
	}
	return q, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest, actor Actor) (*Booking, error) {
	// 1. Validate the request shape
	if !req.EndTime.IsZero() && !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}
	if req.Details == nil {
		return nil, ErrInvalidInput
	}
	if req.Details.Party() < 1 {
		return nil, ErrInvalidPartySize
	}

	// 2. Validate the unit
	unit, err := s.units.GetBookable(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrUnknownResource
		}
		return nil, err
	}
	kind, ok := KindForUnit(unit.Kind)
	if !ok || req.Details.Kind() != kind {
		return nil, ErrDetailsMismatch
	}
	if req.Details.Party() > unit.Capacity {
		return nil, ErrExceedsCapacity
	}

	start, end, err := s.interval(kind, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	userID := actor.ID
	if actor.IsAdmin() && req.UserID != "" {
		userID = req.UserID
	}

	now := s.now()
	b := &Booking{
		Kind:            kind,
		ResourceID:      unit.ID,
		UserID:          userID,
		StartTime:       start,
		EndTime:         end,
		Details:         req.Details,
		Status:          StatusPendingPayment,
		PaymentStatus:   PaymentUnpaid,
		SpecialRequests: req.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// 3. Price outside the unit of work; rejections surface after availability
	p, err := s.priceFor(ctx, kind, unit.TypeID, unit.BasePrice, start, end, req.PromoCode, now)
	if err != nil {
		return nil, err
	}

	// 4. Check and persist in one unit of work
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.LockResource(ctx, unit.ID); err != nil {
			return err
		}
		overlap, err := tx.HasOverlap(ctx, unit.ID, start, end, "")
		if err != nil {
			return err
		}
		if overlap {
			return ErrResourceUnavailable
		}
		if p.err != nil {
			return p.err
		}

		b.Subtotal = p.breakdown.Subtotal
		b.Discount = p.result.Discount
		b.TotalAmount = p.result.FinalTotal
		if p.result.Code != "" {
			b.PromoCode = &p.result.Code
		}

		code, err := s.allocateCode(ctx, tx, kind)
		if err != nil {
			return err
		}
		b.ConfirmationCode = code

		if err := tx.Insert(ctx, b); err != nil {
			return err
		}
		return tx.Audit(ctx, newEntry(actor, audit.ActionCreated, b.ID, code))
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("confirmation_code", b.ConfirmationCode),
		zap.String("resource_id", b.ResourceID),
		zap.Int64("total_amount", b.TotalAmount),
	)
	s.publish(ctx, notify.BookingCreated, b, "")
	return b, nil
}

// allocateCode draws confirmation codes until one is unused or attempts run out.
func (s *service) allocateCode(ctx context.Context, tx Tx, k Kind) (string, error) {
	for i := 0; i < s.settings.CodeMaxAttempts; i++ {
		code, err := s.codes.Generate(k)
		if err != nil {
			return "", err
		}
		exists, err := tx.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		s.logger.Debug("confirmation code collision", zap.String("code", code), zap.Int("attempt", i+1))
	}
	return "", ErrCodeGenerationExhausted
}

// CheckAvailability normalises the interval the same way Create does, so a room
// query answers for the calendar nights a booking would actually occupy.
func (s *service) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidTimeRange
	}
	unit, err := s.units.GetByID(ctx, resourceID)
	if err != nil {
		return false, err
	}
	kind, ok := KindForUnit(unit.Kind)
	if !ok {
		return false, ErrInvalidInput
	}
	start, end, err = s.interval(kind, start, end)
	if err != nil {
		return false, err
	}

	overlap, err := s.repo.HasOverlap(ctx, resourceID, start, end, excludeBookingID)
	if err != nil {
		return false, apperror.Persistence(err)
	}
	return !overlap, nil
}

func (s *service) FreeSlots(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]TimeSlot, error) {
	if !windowEnd.After(windowStart) {
		return nil, ErrInvalidTimeRange
	}
	if _, err := s.units.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}

	windowStart, windowEnd = windowStart.UTC(), windowEnd.UTC()
	bookings, err := s.repo.ListInWindow(ctx, resourceID, windowStart, windowEnd)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return FreeSlots(windowStart, windowEnd, bookings), nil
}

func (s *service) GetByID(ctx context.Context, id string, actor Actor) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if !actor.IsAdmin() && b.UserID != actor.ID {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter, actor Actor) ([]*Booking, int, error) {
	// Guests only ever see their own bookings
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Persistence(err)
	}
	return bookings, total, nil
}

func (s *service) TransitionStatus(ctx context.Context, id string, target Status, actor Actor) (*Booking, error) {
	if !target.Valid() {
		return nil, ErrIllegalTransition
	}
	return s.changeStatus(ctx, id, target, "", actor)
}

func (s *service) Cancel(ctx context.Context, id, reason string, actor Actor) (*Booking, error) {
	return s.changeStatus(ctx, id, StatusCancelled, reason, actor)
}

func (s *service) changeStatus(ctx context.Context, id string, target Status, reason string, actor Actor) (*Booking, error) {
	var b *Booking
	var from Status

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		cur, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Guests may only cancel their own bookings
		if !actor.IsAdmin() && (cur.UserID != actor.ID || target != StatusCancelled) {
			return ErrPermissionDenied
		}
		if err := CheckTransition(cur.Kind, cur.Status, target, actor.IsAdmin()); err != nil {
			return err
		}

		from = cur.Status
		cur.Status = target
		if target == StatusCancelled && cur.Kind == KindRoom && cur.PaymentStatus == PaymentPaid {
			cur.PaymentStatus = PaymentRefunded
		}
		cur.UpdatedAt = s.now()
		if err := tx.Update(ctx, cur); err != nil {
			return err
		}

		action, detail := audit.ActionStatusChanged, fmt.Sprintf("%s -> %s", from, target)
		if target == StatusCancelled {
			action, detail = audit.ActionCancelled, reason
		}
		b = cur
		return tx.Audit(ctx, newEntry(actor, action, cur.ID, detail))
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", b.ID),
		zap.String("from", string(from)),
		zap.String("to", string(b.Status)),
		zap.String("payment_status", string(b.PaymentStatus)),
	)
	eventType := notify.BookingStatusChanged
	if target == StatusCancelled {
		eventType = notify.BookingCancelled
	}
	s.publish(ctx, eventType, b, reason)
	return b, nil
}

func (s *service) ModifyDates(ctx context.Context, id string, start, end time.Time, actor Actor) (*Booking, error) {
	// The resource of a booking never changes, so it can be read before locking.
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if !actor.IsAdmin() && existing.UserID != actor.ID {
		return nil, ErrPermissionDenied
	}
	unit, err := s.units.GetByID(ctx, existing.ResourceID)
	if err != nil {
		return nil, err
	}
	newStart, newEnd, err := s.interval(existing.Kind, start, end)
	if err != nil {
		return nil, err
	}
	// The stored promotion is re-evaluated as of the original booking date.
	// Both are fixed at creation, so the pre-lock copy is authoritative.
	code := ""
	if existing.PromoCode != nil {
		code = *existing.PromoCode
	}
	p, err := s.priceFor(ctx, existing.Kind, unit.TypeID, unit.BasePrice, newStart, newEnd, code, existing.CreatedAt)
	if err != nil {
		return nil, err
	}

	var b *Booking
	var oldStart, oldEnd time.Time

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.LockResource(ctx, existing.ResourceID); err != nil {
			return err
		}
		cur, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !cur.Status.Reschedulable() {
			return ErrNotReschedulable
		}

		overlap, err := tx.HasOverlap(ctx, cur.ResourceID, newStart, newEnd, cur.ID)
		if err != nil {
			return err
		}
		if overlap {
			return ErrResourceUnavailable
		}
		if p.err != nil {
			return p.err
		}

		oldStart, oldEnd = cur.StartTime, cur.EndTime
		cur.StartTime, cur.EndTime = newStart, newEnd
		cur.Subtotal = p.breakdown.Subtotal
		cur.Discount = p.result.Discount
		cur.TotalAmount = p.result.FinalTotal
		cur.UpdatedAt = s.now()
		if err := tx.Update(ctx, cur); err != nil {
			return err
		}

		b = cur
		detail := fmt.Sprintf("%s/%s -> %s/%s",
			oldStart.Format(time.RFC3339), oldEnd.Format(time.RFC3339),
			newStart.Format(time.RFC3339), newEnd.Format(time.RFC3339))
		return tx.Audit(ctx, newEntry(actor, audit.ActionRescheduled, cur.ID, detail))
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.logger.Info("booking rescheduled",
		zap.String("booking_id", b.ID),
		zap.Time("old_start", oldStart),
		zap.Time("new_start", b.StartTime),
		zap.Int64("total_amount", b.TotalAmount),
	)
	s.publish(ctx, notify.BookingRescheduled, b, "")
	return b, nil
}

func (s *service) RecordPayment(ctx context.Context, id string, actor Actor) (*Booking, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	var b *Booking
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		cur, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case cur.Status == StatusCancelled || cur.PaymentStatus == PaymentRefunded:
			return ErrPaymentNotAllowed
		case cur.PaymentStatus == PaymentPaid:
			return ErrAlreadyPaid
		}

		cur.PaymentStatus = PaymentPaid
		cur.UpdatedAt = s.now()
		if err := tx.Update(ctx, cur); err != nil {
			return err
		}
		b = cur
		return tx.Audit(ctx, newEntry(actor, audit.ActionPaymentRecorded, cur.ID, fmt.Sprintf("amount %d", cur.TotalAmount)))
	})
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.logger.Info("booking payment recorded", zap.String("booking_id", b.ID), zap.Int64("total_amount", b.TotalAmount))
	s.publish(ctx, notify.BookingPaymentRecorded, b, "")
	return b, nil
}

func (s *service) Delete(ctx context.Context, id string, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}

	var b *Booking
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		cur, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, cur.ID); err != nil {
			return err
		}
		b = cur
		return tx.Audit(ctx, newEntry(actor, audit.ActionDeleted, cur.ID, cur.ConfirmationCode))
	})
	if err != nil {
		return apperror.Persistence(err)
	}

	s.logger.Warn("booking deleted",
		zap.String("booking_id", b.ID),
		zap.String("confirmation_code", b.ConfirmationCode),
		zap.String("actor_id", actor.ID),
	)
	s.publish(ctx, notify.BookingDeleted, b, "")
	return nil
}

func (s *service) AuditTrail(ctx context.Context, id string, actor Actor) ([]*audit.Entry, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	entries, err := s.repo.AuditTrail(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return entries, nil
}

func newEntry(actor Actor, action audit.Action, bookingID, detail string) *audit.Entry {
	return &audit.Entry{
		ActorID:   actor.ID,
		ActorRole: string(actor.Role),
		Action:    action,
		BookingID: bookingID,
		Detail:    detail,
	}
}

// publish sends a booking event after commit. Failures are logged and never undo the write.
func (s *service) publish(ctx context.Context, t notify.EventType, b *Booking, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	data := notify.BookingData{
		BookingID:        b.ID,
		ConfirmationCode: b.ConfirmationCode,
		UserID:           b.UserID,
		Kind:             string(b.Kind),
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		TotalAmount:      b.TotalAmount,
		Reason:           reason,
	}
	if err := s.notifier.Notify(ctx, notify.NewEvent(t, data)); err != nil {
		s.logger.Error("failed to publish booking event",
			zap.Error(err),
			zap.String("type", string(t)),
			zap.String("booking_id", b.ID),
		)
	}
}
