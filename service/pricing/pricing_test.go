package pricing

import (
	"testing"
	"time"

	"carrental/model"

	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRentalDays(t *testing.T) {
	cases := []struct {
		name   string
		pickup time.Time
		ret    time.Time
		want   int64
	}{
		{"one day", d("2024-01-01"), d("2024-01-02"), 1},
		{"two days", d("2024-01-01"), d("2024-01-03"), 2},
		{"partial day rounds up", d("2024-01-01"), d("2024-01-02").Add(6 * time.Hour), 2},
		{"under one day clamps to one", d("2024-01-01"), d("2024-01-01").Add(3 * time.Hour), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RentalDays(tc.pickup, tc.ret)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRentalDays_ReturnNotAfterPickup(t *testing.T) {
	_, err := RentalDays(d("2024-01-02"), d("2024-01-01"))
	require.ErrorIs(t, err, ErrReturnBeforePickup)

	_, err = RentalDays(d("2024-01-01"), d("2024-01-01"))
	require.ErrorIs(t, err, ErrReturnBeforePickup)
}

func TestBuildQuote(t *testing.T) {
	// 500000/day, 3 days, one addon at 100000/day.
	addons := []model.Addon{{Code: "insurance", Label: "Full insurance", PricePerDay: 100000, Active: true}}
	q, err := BuildQuote(500000, d("2024-03-01"), d("2024-03-04"), addons)
	require.NoError(t, err)
	require.Equal(t, int64(3), q.Days)
	require.Equal(t, int64(1500000), q.BasePrice)
	require.Equal(t, int64(300000), q.ExtrasTotal)
	require.Equal(t, int64(1800000), q.Subtotal())
	require.Len(t, q.Options, 1)
	require.Equal(t, int64(300000), q.Options[0].Total)
}

func TestEvaluateCoupon_Percent(t *testing.T) {
	now := time.Now()
	c := &model.Coupon{Code: "DISC10", Type: model.CouponPercent, Value: 10, IsActive: true}

	disc, err := EvaluateCoupon(c, 1800000, now)
	require.NoError(t, err)
	require.Equal(t, int64(180000), disc)

	// Floor behaviour.
	disc, err = EvaluateCoupon(c, 999, now)
	require.NoError(t, err)
	require.Equal(t, int64(99), disc)
}

func TestEvaluateCoupon_FixedClamped(t *testing.T) {
	now := time.Now()
	c := &model.Coupon{Code: "FLAT", Type: model.CouponFixed, Value: 250000, IsActive: true}

	disc, err := EvaluateCoupon(c, 1000000, now)
	require.NoError(t, err)
	require.Equal(t, int64(250000), disc)

	// Never exceeds the order total.
	disc, err = EvaluateCoupon(c, 100000, now)
	require.NoError(t, err)
	require.Equal(t, int64(100000), disc)
}

func TestEvaluateCoupon_Checks(t *testing.T) {
	now := d("2024-06-15")
	past := d("2024-06-01")
	future := d("2024-07-01")

	cases := []struct {
		name string
		c    model.Coupon
		want error
	}{
		{"inactive", model.Coupon{IsActive: false, Type: model.CouponFixed, Value: 1}, ErrCouponInactive},
		{"not started", model.Coupon{IsActive: true, StartsAt: &future, Type: model.CouponFixed, Value: 1}, ErrCouponNotStarted},
		{"expired", model.Coupon{IsActive: true, ExpiresAt: &past, Type: model.CouponFixed, Value: 1}, ErrCouponExpired},
		{"exhausted", model.Coupon{IsActive: true, MaxUses: 5, UsedCount: 5, Type: model.CouponFixed, Value: 1}, ErrCouponExhausted},
		{"below min order", model.Coupon{IsActive: true, MinOrder: 500000, Type: model.CouponFixed, Value: 1}, ErrBelowMinOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EvaluateCoupon(&tc.c, 100000, now)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

// A coupon past expiry is invalid even while is_active is still true; the
// cleanup sweep only catches up later.
func TestEvaluateCoupon_ExpiredButStillFlaggedActive(t *testing.T) {
	past := d("2024-01-01")
	c := &model.Coupon{IsActive: true, ExpiresAt: &past, Type: model.CouponPercent, Value: 10}
	_, err := EvaluateCoupon(c, 1000000, d("2024-02-01"))
	require.ErrorIs(t, err, ErrCouponExpired)
}
