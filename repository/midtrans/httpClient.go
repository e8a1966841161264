package midtransrepo

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"carrental/util/httpx"
)

const (
	sandboxURL    = "https://app.sandbox.midtrans.com/snap/v1/transactions"
	productionURL = "https://app.midtrans.com/snap/v1/transactions"
)

type httpRepo struct {
	serverKey string
	endpoint  string
	client    *http.Client
}

func NewHTTP(serverKey string, production bool) Repo {
	endpoint := sandboxURL
	if production {
		endpoint = productionURL
	}
	return &httpRepo{serverKey: serverKey, endpoint: endpoint, client: httpx.Client()}
}

func (r *httpRepo) CreateSnapTransaction(ctx context.Context, req CreateSnapReq) (*CreateSnapResp, error) {
	body := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     req.OrderID,
			"gross_amount": req.GrossAmount,
		},
		"customer_details": map[string]any{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
			"email":      req.Email,
			"phone":      req.Phone,
		},
		"item_details": req.Items,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(r.serverKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("midtrans snap request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, &GatewayError{Status: resp.Status, RawRequest: raw, RawResponse: respBody}
	}

	var out struct {
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("midtrans: empty snap token")
	}

	return &CreateSnapResp{
		Token:       out.Token,
		RedirectURL: out.RedirectURL,
		RawRequest:  raw,
		RawResponse: respBody,
	}, nil
}

// GatewayError carries the raw exchange so the payment row keeps an audit trail
// even for rejected checkouts.
type GatewayError struct {
	Status      string
	RawRequest  []byte
	RawResponse []byte
}

func (e *GatewayError) Error() string {
	return "midtrans snap transaction failed: " + e.Status
}

var ErrBadSignature = errors.New("midtrans: signature mismatch")

func (r *httpRepo) VerifySignature(n Notification) error {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + r.serverKey))
	want := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) != 1 {
		return ErrBadSignature
	}
	return nil
}
