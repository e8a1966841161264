package midtransrepo

import "context"

type SnapItem struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type CreateSnapReq struct {
	OrderID     string
	GrossAmount int64
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Items       []SnapItem
}

type CreateSnapResp struct {
	Token       string
	RedirectURL string
	RawRequest  []byte
	RawResponse []byte
}

// Notification is the webhook body Midtrans posts after a transaction changes
// state. GrossAmount arrives as a decimal string ("1800000.00").
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
}

type Repo interface {
	CreateSnapTransaction(ctx context.Context, req CreateSnapReq) (*CreateSnapResp, error)
	// VerifySignature checks the sha512(order_id+status_code+gross_amount+server_key)
	// signature Midtrans attaches to every notification.
	VerifySignature(n Notification) error
}
