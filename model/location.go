// model/location.go
package model

import "time"

type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Province  string    `json:"province"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// swagger:model LocationReq
type LocationReq struct {
	Name     string   `json:"name" validate:"required"`
	Address  string   `json:"address" validate:"required"`
	City     string   `json:"city" validate:"required"`
	Province string   `json:"province" validate:"required"`
	Lat      *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng      *float64 `json:"lng" validate:"omitempty,longitude"`
}
