// model/car.go
package model

import "time"

type CarStatus string

const (
	CarAvailable   CarStatus = "available"
	CarRented      CarStatus = "rented"
	CarMaintenance CarStatus = "maintenance"
)

type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

type Car struct {
	ID           int64        `json:"id"`
	Brand        string       `json:"brand"`
	Model        string       `json:"model"`
	LicensePlate string       `json:"license_plate"`
	Year         int          `json:"year"`
	Category     string       `json:"category"`
	Transmission Transmission `json:"transmission"`
	FuelType     string       `json:"fuel_type"`
	Seats        int          `json:"seats"`
	PricePerDay  int64        `json:"price_per_day"`
	Status       CarStatus    `json:"status"`
	Description  string       `json:"description"`
	Features     []string     `json:"features"`
	LocationID   int64        `json:"location_id"`
	PartnerID    *int64       `json:"partner_id,omitempty"`
	Images       []CarImage   `json:"images,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type CarImage struct {
	ID        int64  `json:"id"`
	CarID     int64  `json:"car_id"`
	URL       string `json:"url"`
	SortOrder int    `json:"sort_order"`
	IsPrimary bool   `json:"is_primary"`
}

// CreateCarReq is the admin payload for adding a car to the fleet.
// swagger:model CreateCarReq
type CreateCarReq struct {
	Brand        string   `json:"brand" validate:"required"`
	Model        string   `json:"model" validate:"required"`
	LicensePlate string   `json:"license_plate" validate:"required"`
	Year         int      `json:"year" validate:"required,gte=1980"`
	Category     string   `json:"category" validate:"required"`
	Transmission string   `json:"transmission" validate:"required,oneof=manual automatic"`
	FuelType     string   `json:"fuel_type" validate:"required"`
	Seats        int      `json:"seats" validate:"required,gte=2,lte=16"`
	PricePerDay  int64    `json:"price_per_day" validate:"required,gt=0"`
	Description  string   `json:"description"`
	Features     []string `json:"features"`
	LocationID   int64    `json:"location_id" validate:"required,gt=0"`
	PartnerID    *int64   `json:"partner_id" validate:"omitempty,gt=0"`
}

// UpdateCarReq uses pointers so absent fields are left untouched.
// swagger:model UpdateCarReq
type UpdateCarReq struct {
	Brand        *string   `json:"brand"`
	Model        *string   `json:"model"`
	Year         *int      `json:"year" validate:"omitempty,gte=1980"`
	Category     *string   `json:"category"`
	Transmission *string   `json:"transmission" validate:"omitempty,oneof=manual automatic"`
	FuelType     *string   `json:"fuel_type"`
	Seats        *int      `json:"seats" validate:"omitempty,gte=2,lte=16"`
	PricePerDay  *int64    `json:"price_per_day" validate:"omitempty,gt=0"`
	Status       *string   `json:"status" validate:"omitempty,oneof=available rented maintenance"`
	Description  *string   `json:"description"`
	Features     *[]string `json:"features"`
	LocationID   *int64    `json:"location_id" validate:"omitempty,gt=0"`
	PartnerID    *int64    `json:"partner_id" validate:"omitempty,gt=0"`
}

// SetMaintenanceReq toggles the manual maintenance flag on a car.
type SetMaintenanceReq struct {
	On *bool `json:"on" validate:"required"`
}

// CarFilter carries the query-string filters of GET /v1/cars.
type CarFilter struct {
	Category     string
	Transmission string
	LocationID   int64
	MinPrice     int64
	MaxPrice     int64
	PickupDate   *time.Time
	ReturnDate   *time.Time
}
