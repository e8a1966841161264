package couponsvc

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"carrental/model"
	"carrental/service/pricing"

	"github.com/stretchr/testify/require"
)

type repoMock struct {
	byCodeFn func(ctx context.Context, code string) (*model.Coupon, error)
	createFn func(ctx context.Context, c *model.Coupon) error
	updateFn func(ctx context.Context, c *model.Coupon) error
	deleteFn func(ctx context.Context, id int64) error
	listFn   func(ctx context.Context) ([]model.Coupon, error)
}

func (m *repoMock) ByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return m.byCodeFn(ctx, code)
}
func (m *repoMock) Create(ctx context.Context, c *model.Coupon) error { return m.createFn(ctx, c) }
func (m *repoMock) Update(ctx context.Context, c *model.Coupon) error { return m.updateFn(ctx, c) }
func (m *repoMock) Delete(ctx context.Context, id int64) error        { return m.deleteFn(ctx, id) }
func (m *repoMock) List(ctx context.Context) ([]model.Coupon, error)  { return m.listFn(ctx) }

type carRepoMock struct {
	detailFn func(ctx context.Context, id int64) (*model.Car, error)
}

func (m *carRepoMock) Detail(ctx context.Context, id int64) (*model.Car, error) {
	return m.detailFn(ctx, id)
}

type addonRepoMock struct {
	addonsFn func(ctx context.Context, codes []string) ([]model.Addon, error)
}

func (m *addonRepoMock) AddonsByCodes(ctx context.Context, codes []string) ([]model.Addon, error) {
	if m.addonsFn == nil {
		return nil, nil
	}
	return m.addonsFn(ctx, codes)
}

func fixedNow(s *service, t time.Time) { s.now = func() time.Time { return t } }

func TestValidate_PercentFromServerSideQuote(t *testing.T) {
	coupon := &model.Coupon{ID: 1, Code: "DISC10", Type: model.CouponPercent, Value: 10, IsActive: true}
	r := &repoMock{
		byCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			require.Equal(t, "DISC10", code)
			return coupon, nil
		},
	}
	cars := &carRepoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Car, error) {
			return &model.Car{ID: id, PricePerDay: 500000, Status: model.CarAvailable}, nil
		},
	}
	addons := &addonRepoMock{
		addonsFn: func(ctx context.Context, codes []string) ([]model.Addon, error) {
			return []model.Addon{{Code: "insurance", PricePerDay: 100000, Active: true}}, nil
		},
	}
	svc := New(r, cars, addons)

	res, err := svc.Validate(context.Background(), model.ValidateCouponReq{
		Code:       "DISC10",
		CarID:      3,
		PickupAt:   "2024-03-01",
		ReturnAt:   "2024-03-04",
		AddonCodes: []string{"insurance"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1800000), res.OrderTotal)
	require.Equal(t, int64(180000), res.Discount)
	require.Equal(t, int64(1620000), res.FinalTotal)
	require.Equal(t, coupon, res.Coupon)
}

func TestValidate_RawCartTotal(t *testing.T) {
	r := &repoMock{
		byCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return &model.Coupon{Code: code, Type: model.CouponFixed, Value: 75000, IsActive: true}, nil
		},
	}
	svc := New(r, &carRepoMock{}, &addonRepoMock{})

	res, err := svc.Validate(context.Background(), model.ValidateCouponReq{
		Code:      "FLAT75",
		CartTotal: 50000,
	})
	require.NoError(t, err)
	// Fixed discount clamps to the order total.
	require.Equal(t, int64(50000), res.Discount)
	require.Equal(t, int64(0), res.FinalTotal)
}

func TestValidate_UnknownCode(t *testing.T) {
	r := &repoMock{
		byCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := New(r, &carRepoMock{}, &addonRepoMock{})

	_, err := svc.Validate(context.Background(), model.ValidateCouponReq{Code: "NOPE", CartTotal: 100})
	require.Equal(t, ErrNotFound, Code(err))
}

func TestValidate_ExhaustedCoupon(t *testing.T) {
	r := &repoMock{
		byCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return &model.Coupon{
				Code: code, Type: model.CouponPercent, Value: 10,
				IsActive: true, MaxUses: 3, UsedCount: 3,
			}, nil
		},
	}
	svc := New(r, &carRepoMock{}, &addonRepoMock{})

	_, err := svc.Validate(context.Background(), model.ValidateCouponReq{Code: "USED", CartTotal: 100000})
	require.Equal(t, ErrInvalid, Code(err))
	require.ErrorIs(t, err, pricing.ErrCouponExhausted)
}

func TestValidate_WindowChecks(t *testing.T) {
	starts := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	r := &repoMock{
		byCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return &model.Coupon{
				Code: code, Type: model.CouponPercent, Value: 10,
				IsActive: true, StartsAt: &starts,
			}, nil
		},
	}
	svc := New(r, &carRepoMock{}, &addonRepoMock{}).(*service)
	fixedNow(svc, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.Validate(context.Background(), model.ValidateCouponReq{Code: "SOON", CartTotal: 100000})
	require.Equal(t, ErrInvalid, Code(err))
	require.ErrorIs(t, err, pricing.ErrCouponNotStarted)
}

func TestCreate_PercentOver100Rejected(t *testing.T) {
	svc := New(&repoMock{}, &carRepoMock{}, &addonRepoMock{})
	_, err := svc.Create(context.Background(), model.CreateCouponReq{
		Code: "BAD", Type: "percent", Value: 150,
	})
	require.Equal(t, ErrBadInput, Code(err))
}

func TestCreate_Success(t *testing.T) {
	r := &repoMock{
		createFn: func(ctx context.Context, c *model.Coupon) error {
			c.ID = 11
			return nil
		},
	}
	svc := New(r, &carRepoMock{}, &addonRepoMock{})

	c, err := svc.Create(context.Background(), model.CreateCouponReq{
		Code: "NEW", Type: "fixed", Value: 50000, ExpiresAt: "2030-01-01",
	})
	require.NoError(t, err)
	require.Equal(t, int64(11), c.ID)
	require.True(t, c.IsActive)
	require.NotNil(t, c.ExpiresAt)
}
