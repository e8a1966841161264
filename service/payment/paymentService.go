package paymentsvc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"carrental/model"
	"carrental/repository/cache"
	midtransrepo "carrental/repository/midtrans"
	"carrental/util/metrics"

	"github.com/google/uuid"
)

type ErrCode string

const (
	ErrBookingNotFound ErrCode = "BOOKING_NOT_FOUND"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrNotPending      ErrCode = "NOT_PENDING"
	ErrWrongMethod     ErrCode = "WRONG_METHOD"
	ErrGateway         ErrCode = "GATEWAY"
	ErrBadSignature    ErrCode = "BAD_SIGNATURE"
	ErrUnknownOrder    ErrCode = "UNKNOWN_ORDER"
)

type codedError struct {
	code ErrCode
	err  error
}

func (e codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.err }

func makeErr(c ErrCode) error            { return codedError{code: c} }
func wrapErr(c ErrCode, err error) error { return codedError{code: c, err: err} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type PaymentRepo interface {
	InsertPending(ctx context.Context, p *model.Payment) error
	UpdateFromGateway(ctx context.Context, id int64, transactionID, snapToken, redirectURL string, rawResponse json.RawMessage) error
	MarkFailed(ctx context.Context, id int64, rawResponse json.RawMessage) error
	ByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	ApplyNotification(ctx context.Context, tx *sql.Tx, id int64, status model.PaymentStatus, transactionID, fraudStatus string, rawNotify json.RawMessage) error
	ListByBooking(ctx context.Context, bookingID int64) ([]model.Payment, error)
}

type BookingRepo interface {
	Detail(ctx context.Context, id int64) (*model.Booking, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error
}

type CarRepo interface {
	RecomputeStatus(ctx context.Context, tx *sql.Tx, id int64) error
}

type UserRepo interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type CheckoutResult struct {
	PaymentID   int64  `json:"payment_id"`
	OrderID     string `json:"order_id"`
	SnapToken   string `json:"snap_token"`
	RedirectURL string `json:"redirect_url"`
}

type Service interface {
	// Checkout creates a Snap transaction for an online_full booking. Every
	// attempt persists its own payment row, pending first, then updated with
	// the gateway outcome.
	Checkout(ctx context.Context, userID, bookingID int64) (*CheckoutResult, error)

	// HandleNotification processes the gateway webhook. The signature is
	// verified before anything is written.
	HandleNotification(ctx context.Context, raw []byte) error

	ListByBooking(ctx context.Context, userID int64, isAdmin bool, bookingID int64) ([]model.Payment, error)
}

type service struct {
	db       *sql.DB
	payments PaymentRepo
	bookings BookingRepo
	cars     CarRepo
	users    UserRepo
	gateway  midtransrepo.Repo
	cache    *cache.CarCache
}

func New(db *sql.DB, p PaymentRepo, b BookingRepo, c CarRepo, u UserRepo, g midtransrepo.Repo, cc *cache.CarCache) Service {
	return &service{db: db, payments: p, bookings: b, cars: c, users: u, gateway: g, cache: cc}
}

func (s *service) Checkout(ctx context.Context, userID, bookingID int64) (*CheckoutResult, error) {
	b, err := s.bookings.Detail(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookingNotFound)
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	if b.Status != model.BookingPending {
		return nil, makeErr(ErrNotPending)
	}
	if b.PaymentMethod != model.OnlineFull {
		return nil, makeErr(ErrWrongMethod)
	}

	u, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	orderID := fmt.Sprintf("BOOK-%d-%s", b.ID, strings.Split(uuid.NewString(), "-")[0])
	snapReq := midtransrepo.CreateSnapReq{
		OrderID:     orderID,
		GrossAmount: b.TotalPrice,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		Items: []midtransrepo.SnapItem{{
			ID:       fmt.Sprintf("car-%d", b.CarID),
			Price:    b.TotalPrice,
			Quantity: 1,
			Name:     fmt.Sprintf("Car rental, %d day(s)", b.Days),
		}},
	}

	rawReq, _ := json.Marshal(snapReq)
	p := &model.Payment{
		BookingID:   b.ID,
		Provider:    "midtrans",
		OrderID:     orderID,
		GrossAmount: b.TotalPrice,
		Status:      model.PaymentPending,
		RawRequest:  rawReq,
	}
	if err := s.payments.InsertPending(ctx, p); err != nil {
		return nil, err
	}

	resp, err := s.gateway.CreateSnapTransaction(ctx, snapReq)
	if err != nil {
		var gw *midtransrepo.GatewayError
		if errors.As(err, &gw) {
			_ = s.payments.MarkFailed(ctx, p.ID, gw.RawResponse)
		} else {
			_ = s.payments.MarkFailed(ctx, p.ID, nil)
		}
		return nil, wrapErr(ErrGateway, err)
	}

	if err := s.payments.UpdateFromGateway(ctx, p.ID, "", resp.Token, resp.RedirectURL, resp.RawResponse); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		PaymentID:   p.ID,
		OrderID:     orderID,
		SnapToken:   resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// statusFromNotification maps Midtrans transaction statuses onto the payment
// row. capture is a settlement only when fraud screening accepted it.
func statusFromNotification(n midtransrepo.Notification) model.PaymentStatus {
	switch n.TransactionStatus {
	case "settlement":
		return model.PaymentSettlement
	case "capture":
		if n.FraudStatus == "" || n.FraudStatus == "accept" {
			return model.PaymentSettlement
		}
		return model.PaymentFailed
	case "pending":
		return model.PaymentPending
	default: // deny, cancel, expire, failure
		return model.PaymentFailed
	}
}

func (s *service) HandleNotification(ctx context.Context, raw []byte) (err error) {
	var n midtransrepo.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return wrapErr(ErrUnknownOrder, fmt.Errorf("bad webhook json: %w", err))
	}
	if n.OrderID == "" || n.TransactionStatus == "" {
		return wrapErr(ErrUnknownOrder, errors.New("missing notification fields"))
	}

	if err := s.gateway.VerifySignature(n); err != nil {
		return wrapErr(ErrBadSignature, err)
	}

	p, err := s.payments.ByOrderID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrUnknownOrder)
		}
		return err
	}

	status := statusFromNotification(n)
	metrics.IncPaymentNotification(n.TransactionStatus)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.payments.ApplyNotification(ctx, tx, p.ID, status, n.TransactionID, n.FraudStatus, raw); err != nil {
		return err
	}

	if status == model.PaymentSettlement {
		b, berr := s.bookings.GetForUpdate(ctx, tx, p.BookingID)
		if berr != nil {
			err = berr
			return err
		}
		// A replayed settlement finds the booking already confirmed; nothing
		// further to do.
		if b.Status == model.BookingPending {
			if err = s.bookings.SetStatus(ctx, tx, b.ID, model.BookingConfirmed); err != nil {
				return err
			}
			if err = s.cars.RecomputeStatus(ctx, tx, b.CarID); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *service) ListByBooking(ctx context.Context, userID int64, isAdmin bool, bookingID int64) ([]model.Payment, error) {
	b, err := s.bookings.Detail(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookingNotFound)
		}
		return nil, err
	}
	if !isAdmin && b.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	return s.payments.ListByBooking(ctx, bookingID)
}
