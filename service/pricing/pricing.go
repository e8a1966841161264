// Package pricing holds the rental price arithmetic shared by the booking and
// coupon services.
package pricing

import (
	"errors"
	"time"

	"carrental/model"
)

var (
	ErrReturnBeforePickup = errors.New("return must be after pickup")
	ErrCouponInactive     = errors.New("coupon is not active")
	ErrCouponNotStarted   = errors.New("coupon is not valid yet")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrBelowMinOrder      = errors.New("order total below coupon minimum")
)

// RentalDays counts billable days as ceil((return-pickup)/24h) with a minimum
// of one day. Callers validate return > pickup first.
func RentalDays(pickup, ret time.Time) (int64, error) {
	if !ret.After(pickup) {
		return 0, ErrReturnBeforePickup
	}
	d := ret.Sub(pickup)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days, nil
}

// Quote is the server-side price breakdown for a car/date/addon combination.
type Quote struct {
	Days        int64
	BasePrice   int64
	ExtrasTotal int64
	Options     []model.BookingOption
}

func (q Quote) Subtotal() int64 { return q.BasePrice + q.ExtrasTotal }

// BuildQuote recomputes every amount from the car's daily price and the addon
// catalog rows; nothing price-shaped is taken from the client.
func BuildQuote(pricePerDay int64, pickup, ret time.Time, addons []model.Addon) (Quote, error) {
	days, err := RentalDays(pickup, ret)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{Days: days, BasePrice: pricePerDay * days}
	for _, a := range addons {
		total := a.PricePerDay * days
		q.Options = append(q.Options, model.BookingOption{
			Code:        a.Code,
			Label:       a.Label,
			PricePerDay: a.PricePerDay,
			Total:       total,
		})
		q.ExtrasTotal += total
	}
	return q, nil
}

// EvaluateCoupon runs the validity checks in the documented order (active,
// window, usage cap, minimum order) and returns the discount, clamped to
// [0, total]. Percent discounts floor: floor(total*value/100).
func EvaluateCoupon(c *model.Coupon, total int64, now time.Time) (int64, error) {
	if !c.IsActive {
		return 0, ErrCouponInactive
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return 0, ErrCouponNotStarted
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return 0, ErrCouponExpired
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return 0, ErrCouponExhausted
	}
	if total < c.MinOrder {
		return 0, ErrBelowMinOrder
	}

	var discount int64
	switch c.Type {
	case model.CouponPercent:
		discount = total * c.Value / 100 // integer division floors
	case model.CouponFixed:
		discount = c.Value
	}
	if discount < 0 {
		discount = 0
	}
	if discount > total {
		discount = total
	}
	return discount, nil
}
