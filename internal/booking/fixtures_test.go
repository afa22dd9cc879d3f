package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/catalog"
	"github.com/nekogravitycat/lodging-booking-backend/internal/notify"
	"github.com/nekogravitycat/lodging-booking-backend/internal/pricing"
	"github.com/nekogravitycat/lodging-booking-backend/internal/promotion"
)

func ptr[T any](v T) *T { return &v }

type stubUnits struct {
	catalog.Service
	units map[string]*catalog.Unit
}

func (s *stubUnits) GetByID(_ context.Context, id string) (*catalog.Unit, error) {
	u, ok := s.units[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return u, nil
}

func (s *stubUnits) GetBookable(ctx context.Context, id string) (*catalog.Unit, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, catalog.ErrInactive
	}
	return u, nil
}

func (s *stubUnits) TypeSummary(_ context.Context, typeID string) (*catalog.TypeSummary, error) {
	var sum *catalog.TypeSummary
	for _, u := range s.units {
		if u.TypeID != typeID || !u.IsActive {
			continue
		}
		if sum == nil || u.BasePrice < sum.BasePrice {
			sum = &catalog.TypeSummary{TypeID: typeID, Kind: u.Kind, BasePrice: u.BasePrice}
		}
	}
	if sum == nil {
		return nil, catalog.ErrTypeNotFound
	}
	return sum, nil
}

// stubPrices counts lookups made from inside a unit of work in txReads.
type stubPrices struct {
	pricing.Service
	rules   []*pricing.Rule
	txReads atomic.Int32
}

func (s *stubPrices) PriceNights(ctx context.Context, typeID string, base int64, checkIn, checkOut time.Time) (*pricing.Breakdown, error) {
	if inTx(ctx) {
		s.txReads.Add(1)
	}
	return pricing.Nights(s.rules, typeID, base, checkIn, checkOut)
}

func (s *stubPrices) PriceSingle(ctx context.Context, typeID string, base int64, at time.Time) (*pricing.Breakdown, error) {
	if inTx(ctx) {
		s.txReads.Add(1)
	}
	return pricing.Single(s.rules, typeID, base, at), nil
}

type memPromos struct {
	mu      sync.Mutex
	byCode  map[string]*promotion.Promotion
	txReads atomic.Int32
}

func (m *memPromos) Create(_ context.Context, p *promotion.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = "promo-" + p.Code
	m.byCode[p.Code] = p
	return nil
}

func (m *memPromos) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	if inTx(ctx) {
		m.txReads.Add(1)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byCode[promotion.NormalizeCode(code)]
	if !ok {
		return nil, promotion.ErrNotFound
	}
	return p, nil
}

func (m *memPromos) List(context.Context, int, int) ([]*promotion.Promotion, int, error) {
	return nil, 0, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) last() notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

// fixedCodes hands out codes in order and then repeats the last one.
type fixedCodes struct {
	mu    sync.Mutex
	codes []string
	i     int
}

func (f *fixedCodes) Generate(Kind) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := f.codes[f.i]
	if f.i < len(f.codes)-1 {
		f.i++
	}
	return code, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	guest      = Actor{ID: "guest-1", Role: RoleGuest}
	otherGuest = Actor{ID: "guest-2", Role: RoleGuest}
	admin      = Actor{ID: "admin-1", Role: RoleAdmin}
)

type harness struct {
	svc      Service
	repo     *memRepo
	prices   *stubPrices
	promos   *memPromos
	notifier *recordingNotifier
	clock    *testClock
}

// newHarness starts the clock at Saturday 2024-06-01 12:00 UTC.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	units := &stubUnits{units: map[string]*catalog.Unit{
		"room-1":   {ID: "room-1", Kind: catalog.KindRoom, TypeID: "deluxe", Name: "Deluxe 101", BasePrice: 20000, Capacity: 3, IsActive: true},
		"room-2":   {ID: "room-2", Kind: catalog.KindRoom, TypeID: "deluxe", Name: "Deluxe 102", BasePrice: 22000, Capacity: 3, IsActive: true},
		"room-off": {ID: "room-off", Kind: catalog.KindRoom, TypeID: "suite", Name: "Suite 900", BasePrice: 90000, Capacity: 4, IsActive: false},
		"table-1":  {ID: "table-1", Kind: catalog.KindTable, TypeID: "window-table", Name: "Window 1", BasePrice: 5000, Capacity: 4, IsActive: true},
		"spa-1":    {ID: "spa-1", Kind: catalog.KindSpaSlot, TypeID: "massage", Name: "Massage A", BasePrice: 8000, Capacity: 2, IsActive: true},
	}}
	prices := &stubPrices{rules: []*pricing.Rule{{
		ID: "weekend", Type: pricing.RuleWeekend, ScopeTypeID: ptr("deluxe"), Price: 30000,
		AppliesFri: true, AppliesSat: true, Priority: 10, IsActive: true,
	}}}

	promos := &memPromos{byCode: map[string]*promotion.Promotion{}}
	promoSvc := promotion.NewService(promos, zap.NewNop())
	ctx := context.Background()
	_, err := promoSvc.Create(ctx, promotion.CreateRequest{Code: "SAVE20", DiscountType: promotion.DiscountPercentage, DiscountValue: 20})
	require.NoError(t, err)
	_, err = promoSvc.Create(ctx, promotion.CreateRequest{Code: "FLAT550", DiscountType: promotion.DiscountFixed, DiscountValue: 55000})
	require.NoError(t, err)
	_, err = promoSvc.Create(ctx, promotion.CreateRequest{Code: "EARLYJUNE", DiscountType: promotion.DiscountFixed, DiscountValue: 1000,
		StartDate: ptr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), EndDate: ptr(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, err)

	h := &harness{
		repo:     newMemRepo(),
		prices:   prices,
		promos:   promos,
		notifier: &recordingNotifier{},
		clock:    &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	settings := Settings{CodeMaxAttempts: 5, RestaurantSeatingDuration: 2 * time.Hour, SpaSessionDuration: time.Hour}
	opts = append([]Option{WithClock(h.clock.Now)}, opts...)
	h.svc = NewService(h.repo, units, prices, promoSvc, h.notifier, settings, zap.NewNop(), opts...)
	return h
}

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2024, month, day, hour, minute, 0, 0, time.UTC)
}

func (h *harness) bookRoom(t *testing.T, actor Actor, resourceID string, checkIn, checkOut time.Time, promo string) *Booking {
	t.Helper()
	b, err := h.svc.Create(context.Background(), CreateRequest{
		ResourceID: resourceID,
		StartTime:  checkIn,
		EndTime:    checkOut,
		Details:    RoomDetails{Adults: 2},
		PromoCode:  promo,
	}, actor)
	require.NoError(t, err)
	return b
}
