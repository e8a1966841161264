// model/partner.go
package model

import "time"

type PartnerStatus string

const (
	PartnerActive   PartnerStatus = "active"
	PartnerInactive PartnerStatus = "inactive"
)

// RentalPartner is a third-party fleet owner. Partners are soft-deactivated,
// never hard-deleted, so their cars keep a valid reference.
type RentalPartner struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Address   string        `json:"address"`
	City      string        `json:"city"`
	Province  string        `json:"province"`
	Phone     string        `json:"phone"`
	Email     string        `json:"email"`
	Status    PartnerStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// swagger:model PartnerReq
type PartnerReq struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	Province string `json:"province" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}
