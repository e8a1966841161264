// model/payment.go
package model

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSettlement PaymentStatus = "settlement"
	PaymentFailed     PaymentStatus = "failed"
)

// Payment is one checkout attempt against the gateway. A booking can carry
// several rows; only one ever reaches settlement.
type Payment struct {
	ID            int64           `json:"id"`
	BookingID     int64           `json:"booking_id"`
	Provider      string          `json:"provider"`
	OrderID       string          `json:"order_id"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	SnapToken     *string         `json:"snap_token,omitempty"`
	RedirectURL   *string         `json:"redirect_url,omitempty"`
	GrossAmount   int64           `json:"gross_amount"`
	Status        PaymentStatus   `json:"status"`
	FraudStatus   *string         `json:"fraud_status,omitempty"`
	RawRequest    json.RawMessage `json:"-"`
	RawResponse   json.RawMessage `json:"-"`
	RawNotify     json.RawMessage `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
}
