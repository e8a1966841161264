// model/booking.go
package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentMethod string

const (
	PayAtLocation PaymentMethod = "pay_at_location"
	OnlineFull    PaymentMethod = "online_full"
)

type Booking struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	CarID             int64           `json:"car_id"`
	PickupAt          time.Time       `json:"pickup_at"`
	ReturnAt          time.Time       `json:"return_at"`
	PickupLocationID  int64           `json:"pickup_location_id"`
	DropoffLocationID *int64          `json:"dropoff_location_id,omitempty"`
	Status            BookingStatus   `json:"status"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	Days              int64           `json:"days"`
	BasePrice         int64           `json:"base_price"`
	ExtrasTotal       int64           `json:"extras_total"`
	Discount          int64           `json:"discount"`
	TotalPrice        int64           `json:"total_price"`
	CouponCode        *string         `json:"coupon_code,omitempty"`
	Options           []BookingOption `json:"options,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// BookingOption is an addon (insurance, child seat, driver) attached to a
// booking. PricePerDay is resolved from the addon catalog, never from the client.
type BookingOption struct {
	ID          int64  `json:"id"`
	BookingID   int64  `json:"booking_id"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	PricePerDay int64  `json:"price_per_day"`
	Total       int64  `json:"total"`
}

// Addon is a catalog row for bookable extras.
type Addon struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	PricePerDay int64  `json:"price_per_day"`
	Active      bool   `json:"active"`
}

// CreateBookingReq is the customer checkout payload. Addons are referenced by
// catalog code only; prices come from the server.
// swagger:model CreateBookingReq
type CreateBookingReq struct {
	CarID             int64    `json:"car_id" validate:"required,gt=0"`
	PickupAt          string   `json:"pickup_at" validate:"required"`
	ReturnAt          string   `json:"return_at" validate:"required"`
	PickupLocationID  int64    `json:"pickup_location_id" validate:"required,gt=0"`
	DropoffLocationID *int64   `json:"dropoff_location_id" validate:"omitempty,gt=0"`
	PaymentMethod     string   `json:"payment_method" validate:"required,oneof=pay_at_location online_full"`
	AddonCodes        []string `json:"addon_codes" validate:"omitempty,dive,required"`
	CouponCode        string   `json:"coupon_code"`
}
