package promotion

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

type fakeRepo struct {
	byCode map[string]*Promotion
}

func (f *fakeRepo) Create(_ context.Context, p *Promotion) error {
	if _, ok := f.byCode[p.Code]; ok {
		return ErrDuplicateCode
	}
	p.ID = "promo-" + p.Code
	f.byCode[p.Code] = p
	return nil
}

func (f *fakeRepo) FindByCode(_ context.Context, code string) (*Promotion, error) {
	p, ok := f.byCode[NormalizeCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) List(_ context.Context, _, _ int) ([]*Promotion, int, error) {
	var out []*Promotion
	for _, p := range f.byCode {
		out = append(out, p)
	}
	return out, len(out), nil
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc := NewService(&fakeRepo{byCode: map[string]*Promotion{}}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Code: "save20", DiscountType: DiscountPercentage, DiscountValue: 20})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Code: "FLAT550", DiscountType: DiscountFixed, DiscountValue: 55000})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Code: "WINTER", DiscountType: DiscountFixed, DiscountValue: 1000,
		StartDate: ptr(day(2024, 12, 1)), EndDate: ptr(day(2024, 12, 31))})
	require.NoError(t, err)
	return svc
}

func TestScenarioPercentageAndClampedFixed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := day(2024, 6, 1)

	res, err := svc.Apply(ctx, 50000, "SAVE20", now)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), res.Discount)
	assert.Equal(t, int64(40000), res.FinalTotal)

	res, err = svc.Apply(ctx, 50000, "flat550", now)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), res.Discount)
	assert.Equal(t, int64(0), res.FinalTotal)
}

func TestApplyFailureKinds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, 10000, "NOPE", day(2024, 12, 5))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Apply(ctx, 10000, "  ", day(2024, 12, 5))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Apply(ctx, 10000, "winter", day(2025, 1, 1))
	assert.ErrorIs(t, err, ErrExpired)

	res, err := svc.Apply(ctx, 10000, "winter", time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(9000), res.FinalTotal)

	inactive := &Promotion{Code: "OFF", DiscountType: DiscountFixed, DiscountValue: 5, IsActive: false}
	_, err = inactive.Apply(100, day(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInactive)
}

func TestApplyIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Apply(ctx, 12345, "SAVE20", day(2024, 6, 1))
	require.NoError(t, err)
	second, err := svc.Apply(ctx, 12345, "SAVE20", day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFinalTotalNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 1000; i++ {
		subtotal := rng.Int64N(1_000_000)
		p := &Promotion{DiscountType: DiscountFixed, DiscountValue: rng.Int64N(2_000_000), IsActive: true}
		if rng.IntN(2) == 0 {
			p.DiscountType = DiscountPercentage
			p.DiscountValue = rng.Int64N(101)
		}

		res, err := p.Apply(subtotal, day(2024, 1, 1))
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.FinalTotal, int64(0))
		require.LessOrEqual(t, res.Discount, subtotal)
		require.Equal(t, subtotal, res.Discount+res.FinalTotal)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Code: "BIG", DiscountType: DiscountPercentage, DiscountValue: 101})
	assert.ErrorIs(t, err, ErrPercentRange)

	_, err = svc.Create(ctx, CreateRequest{Code: "", DiscountType: DiscountFixed, DiscountValue: 1})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Create(ctx, CreateRequest{Code: "X", DiscountType: "bogo", DiscountValue: 1})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Create(ctx, CreateRequest{Code: "Save20", DiscountType: DiscountPercentage, DiscountValue: 10})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}
