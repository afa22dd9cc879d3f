package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nekogravitycat/lodging-booking-backend/internal/audit"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pkg/apperror"
)

// memRepo is an in-memory Repository. Units of work are serialised by a single
// mutex and staged on a copy that replaces the committed state on success.
type memRepo struct {
	mu       sync.Mutex
	bookings map[string]*Booking
	audits   []*audit.Entry
	nextID   int
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[string]*Booking)}
}

func cloneBooking(b *Booking) *Booking {
	c := *b
	if b.PromoCode != nil {
		code := *b.PromoCode
		c.PromoCode = &code
	}
	return &c
}

type inTxKey struct{}

// inTx reports whether ctx belongs to a memRepo unit of work.
func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(inTxKey{}).(bool)
	return v
}

func (r *memRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx = context.WithValue(ctx, inTxKey{}, true)

	staged := make(map[string]*Booking, len(r.bookings))
	for id, b := range r.bookings {
		staged[id] = cloneBooking(b)
	}
	tx := &memTx{staged: staged, nextID: r.nextID, auditBase: len(r.audits)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.bookings = tx.staged
	r.nextID = tx.nextID
	r.audits = append(r.audits, tx.audits...)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, len(out), nil
}

func (r *memRepo) HasOverlap(_ context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return overlapIn(r.bookings, resourceID, start, end, excludeBookingID), nil
}

func (r *memRepo) ListInWindow(_ context.Context, resourceID string, start, end time.Time) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.bookings {
		if b.ResourceID == resourceID && b.Conflicts(start, end) {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (r *memRepo) AuditTrail(_ context.Context, bookingID string) ([]*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for _, e := range r.audits {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func overlapIn(bookings map[string]*Booking, resourceID string, start, end time.Time, excludeBookingID string) bool {
	for _, b := range bookings {
		if b.ResourceID == resourceID && b.ID != excludeBookingID && b.Conflicts(start, end) {
			return true
		}
	}
	return false
}

type memTx struct {
	staged    map[string]*Booking
	audits    []*audit.Entry
	nextID    int
	auditBase int
}

func (t *memTx) LockResource(context.Context, string) error { return nil }

func (t *memTx) HasOverlap(_ context.Context, resourceID string, start, end time.Time, excludeBookingID string) (bool, error) {
	return overlapIn(t.staged, resourceID, start, end, excludeBookingID), nil
}

func (t *memTx) CodeExists(_ context.Context, code string) (bool, error) {
	for _, b := range t.staged {
		if b.ConfirmationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Insert(_ context.Context, b *Booking) error {
	// Mirrors the exclusion constraint.
	if overlapIn(t.staged, b.ResourceID, b.StartTime, b.EndTime, "") {
		return ErrResourceUnavailable
	}
	t.nextID++
	b.ID = fmt.Sprintf("bk-%d", t.nextID)
	b.Version = 1
	t.staged[b.ID] = cloneBooking(b)
	return nil
}

func (t *memTx) GetForUpdate(_ context.Context, id string) (*Booking, error) {
	b, ok := t.staged[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBooking(b), nil
}

func (t *memTx) Update(_ context.Context, b *Booking) error {
	cur, ok := t.staged[b.ID]
	if !ok || cur.Version != b.Version {
		return apperror.ErrConcurrentModification
	}
	b.Version++
	t.staged[b.ID] = cloneBooking(b)
	return nil
}

func (t *memTx) Delete(_ context.Context, id string) error {
	if _, ok := t.staged[id]; !ok {
		return ErrNotFound
	}
	delete(t.staged, id)
	return nil
}

func (t *memTx) Audit(_ context.Context, e *audit.Entry) error {
	e.ID = fmt.Sprintf("audit-%d", t.auditBase+len(t.audits)+1)
	t.audits = append(t.audits, e)
	return nil
}
