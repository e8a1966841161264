// model/coupon.go
package model

import "time"

type CouponType string

const (
	CouponPercent CouponType = "percent"
	CouponFixed   CouponType = "fixed"
)

type Coupon struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Type      CouponType `json:"type"`
	Value     int64      `json:"value"`
	MinOrder  int64      `json:"min_order"`
	MaxUses   int64      `json:"max_uses"`
	UsedCount int64      `json:"used_count"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// swagger:model CreateCouponReq
type CreateCouponReq struct {
	Code      string `json:"code" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=percent fixed"`
	Value     int64  `json:"value" validate:"required,gt=0"`
	MinOrder  int64  `json:"min_order" validate:"gte=0"`
	MaxUses   int64  `json:"max_uses" validate:"gte=0"`
	StartsAt  string `json:"starts_at"`
	ExpiresAt string `json:"expires_at"`
	IsActive  *bool  `json:"is_active"`
}

// ValidateCouponReq computes a discount either from a car/date/addon combination
// (recomputed server-side) or from a raw client cart total.
// swagger:model ValidateCouponReq
type ValidateCouponReq struct {
	Code       string   `json:"code" validate:"required"`
	CarID      int64    `json:"car_id" validate:"omitempty,gt=0"`
	PickupAt   string   `json:"pickup_at"`
	ReturnAt   string   `json:"return_at"`
	AddonCodes []string `json:"addon_codes"`
	CartTotal  int64    `json:"cart_total" validate:"gte=0"`
}
