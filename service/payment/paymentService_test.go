package paymentsvc

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"carrental/model"
	midtransrepo "carrental/repository/midtrans"
	"carrental/util/database/dbtest"

	"github.com/stretchr/testify/require"
)

type paymentRepoMock struct {
	insertPending     func(ctx context.Context, p *model.Payment) error
	updateFromGateway func(ctx context.Context, id int64, transactionID, snapToken, redirectURL string, rawResponse json.RawMessage) error
	markFailed        func(ctx context.Context, id int64, rawResponse json.RawMessage) error
	byOrderID         func(ctx context.Context, orderID string) (*model.Payment, error)
	applyNotification func(ctx context.Context, tx *sql.Tx, id int64, status model.PaymentStatus, transactionID, fraudStatus string, rawNotify json.RawMessage) error
	listByBooking     func(ctx context.Context, bookingID int64) ([]model.Payment, error)
}

func (m *paymentRepoMock) InsertPending(ctx context.Context, p *model.Payment) error {
	return m.insertPending(ctx, p)
}
func (m *paymentRepoMock) UpdateFromGateway(ctx context.Context, id int64, transactionID, snapToken, redirectURL string, rawResponse json.RawMessage) error {
	return m.updateFromGateway(ctx, id, transactionID, snapToken, redirectURL, rawResponse)
}
func (m *paymentRepoMock) MarkFailed(ctx context.Context, id int64, rawResponse json.RawMessage) error {
	return m.markFailed(ctx, id, rawResponse)
}
func (m *paymentRepoMock) ByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return m.byOrderID(ctx, orderID)
}
func (m *paymentRepoMock) ApplyNotification(ctx context.Context, tx *sql.Tx, id int64, status model.PaymentStatus, transactionID, fraudStatus string, rawNotify json.RawMessage) error {
	if m.applyNotification == nil {
		return nil
	}
	return m.applyNotification(ctx, tx, id, status, transactionID, fraudStatus, rawNotify)
}
func (m *paymentRepoMock) ListByBooking(ctx context.Context, bookingID int64) ([]model.Payment, error) {
	return m.listByBooking(ctx, bookingID)
}

type bookingRepoMock struct {
	detail       func(ctx context.Context, id int64) (*model.Booking, error)
	getForUpdate func(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error)
	setStatus    func(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error
}

func (m *bookingRepoMock) Detail(ctx context.Context, id int64) (*model.Booking, error) {
	return m.detail(ctx, id)
}
func (m *bookingRepoMock) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error) {
	if m.getForUpdate == nil {
		return nil, sql.ErrNoRows
	}
	return m.getForUpdate(ctx, tx, id)
}
func (m *bookingRepoMock) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	if m.setStatus == nil {
		return nil
	}
	return m.setStatus(ctx, tx, id, status)
}

type carRepoMock struct {
	recompute func(ctx context.Context, tx *sql.Tx, id int64) error
}

func (m *carRepoMock) RecomputeStatus(ctx context.Context, tx *sql.Tx, id int64) error {
	if m.recompute == nil {
		return nil
	}
	return m.recompute(ctx, tx, id)
}

type userRepoMock struct {
	byID func(ctx context.Context, id int64) (*model.User, error)
}

func (m *userRepoMock) ByID(ctx context.Context, id int64) (*model.User, error) {
	return m.byID(ctx, id)
}

type gatewayMock struct {
	createSnap func(ctx context.Context, req midtransrepo.CreateSnapReq) (*midtransrepo.CreateSnapResp, error)
	verify     func(n midtransrepo.Notification) error
}

func (m *gatewayMock) CreateSnapTransaction(ctx context.Context, req midtransrepo.CreateSnapReq) (*midtransrepo.CreateSnapResp, error) {
	return m.createSnap(ctx, req)
}
func (m *gatewayMock) VerifySignature(n midtransrepo.Notification) error { return m.verify(n) }

func pendingOnlineBooking() *model.Booking {
	return &model.Booking{
		ID:            7,
		UserID:        3,
		CarID:         12,
		Status:        model.BookingPending,
		PaymentMethod: model.OnlineFull,
		Days:          3,
		TotalPrice:    1620000,
	}
}

func TestCheckout_Success(t *testing.T) {
	var inserted *model.Payment
	var updatedToken string

	payments := &paymentRepoMock{
		insertPending: func(_ context.Context, p *model.Payment) error {
			p.ID = 55
			inserted = p
			return nil
		},
		updateFromGateway: func(_ context.Context, id int64, _, snapToken, _ string, _ json.RawMessage) error {
			require.Equal(t, int64(55), id)
			updatedToken = snapToken
			return nil
		},
	}
	bookings := &bookingRepoMock{
		detail: func(_ context.Context, id int64) (*model.Booking, error) {
			return pendingOnlineBooking(), nil
		},
	}
	users := &userRepoMock{byID: func(_ context.Context, _ int64) (*model.User, error) {
		return &model.User{ID: 3, FirstName: "Budi", Email: "budi@example.com"}, nil
	}}
	gw := &gatewayMock{createSnap: func(_ context.Context, req midtransrepo.CreateSnapReq) (*midtransrepo.CreateSnapResp, error) {
		require.Equal(t, int64(1620000), req.GrossAmount)
		require.Len(t, req.Items, 1)
		return &midtransrepo.CreateSnapResp{Token: "snap-abc", RedirectURL: "https://pay/abc"}, nil
	}}

	svc := New(nil, payments, bookings, &carRepoMock{}, users, gw, nil)
	res, err := svc.Checkout(context.Background(), 3, 7)
	require.NoError(t, err)

	require.Equal(t, int64(55), res.PaymentID)
	require.Equal(t, "snap-abc", res.SnapToken)
	require.Contains(t, res.OrderID, "BOOK-7-")
	require.Equal(t, "snap-abc", updatedToken)
	require.Equal(t, "midtrans", inserted.Provider)
	require.NotEmpty(t, inserted.RawRequest)
}

func TestCheckout_Guards(t *testing.T) {
	cases := []struct {
		name    string
		booking *model.Booking
		userID  int64
		want    ErrCode
	}{
		{"not owner", pendingOnlineBooking(), 99, ErrNotOwner},
		{"not pending", func() *model.Booking {
			b := pendingOnlineBooking()
			b.Status = model.BookingConfirmed
			return b
		}(), 3, ErrNotPending},
		{"pay at location", func() *model.Booking {
			b := pendingOnlineBooking()
			b.PaymentMethod = model.PayAtLocation
			return b
		}(), 3, ErrWrongMethod},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bookings := &bookingRepoMock{detail: func(_ context.Context, _ int64) (*model.Booking, error) {
				return tc.booking, nil
			}}
			svc := New(nil, &paymentRepoMock{}, bookings, &carRepoMock{}, &userRepoMock{}, &gatewayMock{}, nil)
			_, err := svc.Checkout(context.Background(), tc.userID, 7)
			require.Equal(t, tc.want, Code(err))
		})
	}
}

func TestCheckout_BookingNotFound(t *testing.T) {
	bookings := &bookingRepoMock{detail: func(_ context.Context, _ int64) (*model.Booking, error) {
		return nil, sql.ErrNoRows
	}}
	svc := New(nil, &paymentRepoMock{}, bookings, &carRepoMock{}, &userRepoMock{}, &gatewayMock{}, nil)
	_, err := svc.Checkout(context.Background(), 3, 404)
	require.Equal(t, ErrBookingNotFound, Code(err))
}

func TestCheckout_GatewayFailureMarksPaymentFailed(t *testing.T) {
	failedID := int64(0)
	payments := &paymentRepoMock{
		insertPending: func(_ context.Context, p *model.Payment) error { p.ID = 56; return nil },
		markFailed: func(_ context.Context, id int64, raw json.RawMessage) error {
			failedID = id
			require.JSONEq(t, `{"error_messages":["denied"]}`, string(raw))
			return nil
		},
	}
	bookings := &bookingRepoMock{detail: func(_ context.Context, _ int64) (*model.Booking, error) {
		return pendingOnlineBooking(), nil
	}}
	users := &userRepoMock{byID: func(_ context.Context, _ int64) (*model.User, error) {
		return &model.User{ID: 3}, nil
	}}
	gw := &gatewayMock{createSnap: func(_ context.Context, _ midtransrepo.CreateSnapReq) (*midtransrepo.CreateSnapResp, error) {
		return nil, &midtransrepo.GatewayError{Status: "401 Unauthorized", RawResponse: []byte(`{"error_messages":["denied"]}`)}
	}}

	svc := New(nil, payments, bookings, &carRepoMock{}, users, gw, nil)
	_, err := svc.Checkout(context.Background(), 3, 7)
	require.Equal(t, ErrGateway, Code(err))
	require.Equal(t, int64(56), failedID)
}

func TestHandleNotification_BadSignature(t *testing.T) {
	looked := false
	payments := &paymentRepoMock{byOrderID: func(_ context.Context, _ string) (*model.Payment, error) {
		looked = true
		return nil, sql.ErrNoRows
	}}
	gw := &gatewayMock{verify: func(_ midtransrepo.Notification) error {
		return midtransrepo.ErrBadSignature
	}}

	svc := New(nil, payments, &bookingRepoMock{}, &carRepoMock{}, &userRepoMock{}, gw, nil)
	err := svc.HandleNotification(context.Background(), []byte(`{
		"order_id":"BOOK-7-x","status_code":"200","gross_amount":"1620000.00",
		"transaction_status":"settlement","signature_key":"bogus"}`))
	require.Equal(t, ErrBadSignature, Code(err))
	require.False(t, looked, "must not touch storage before the signature checks out")
}

func TestHandleNotification_UnknownOrder(t *testing.T) {
	payments := &paymentRepoMock{byOrderID: func(_ context.Context, orderID string) (*model.Payment, error) {
		require.Equal(t, "BOOK-9-y", orderID)
		return nil, sql.ErrNoRows
	}}
	gw := &gatewayMock{verify: func(_ midtransrepo.Notification) error { return nil }}

	svc := New(nil, payments, &bookingRepoMock{}, &carRepoMock{}, &userRepoMock{}, gw, nil)
	err := svc.HandleNotification(context.Background(), []byte(`{
		"order_id":"BOOK-9-y","status_code":"200","gross_amount":"100.00",
		"transaction_status":"settlement","signature_key":"ok"}`))
	require.Equal(t, ErrUnknownOrder, Code(err))
}

func TestHandleNotification_MalformedBody(t *testing.T) {
	svc := New(nil, &paymentRepoMock{}, &bookingRepoMock{}, &carRepoMock{}, &userRepoMock{}, &gatewayMock{}, nil)

	require.Equal(t, ErrUnknownOrder, Code(svc.HandleNotification(context.Background(), []byte(`not json`))))
	require.Equal(t, ErrUnknownOrder, Code(svc.HandleNotification(context.Background(), []byte(`{"order_id":""}`))))
}

func TestStatusFromNotification(t *testing.T) {
	cases := []struct {
		txStatus, fraud string
		want            model.PaymentStatus
	}{
		{"settlement", "", model.PaymentSettlement},
		{"capture", "accept", model.PaymentSettlement},
		{"capture", "", model.PaymentSettlement},
		{"capture", "challenge", model.PaymentFailed},
		{"pending", "", model.PaymentPending},
		{"deny", "", model.PaymentFailed},
		{"cancel", "", model.PaymentFailed},
		{"expire", "", model.PaymentFailed},
	}
	for _, tc := range cases {
		got := statusFromNotification(midtransrepo.Notification{
			TransactionStatus: tc.txStatus,
			FraudStatus:       tc.fraud,
		})
		require.Equal(t, tc.want, got, "%s/%s", tc.txStatus, tc.fraud)
	}
}

func TestListByBooking_OwnerCheck(t *testing.T) {
	bookings := &bookingRepoMock{detail: func(_ context.Context, _ int64) (*model.Booking, error) {
		return pendingOnlineBooking(), nil
	}}
	payments := &paymentRepoMock{listByBooking: func(_ context.Context, _ int64) ([]model.Payment, error) {
		return []model.Payment{{ID: 1}}, nil
	}}
	svc := New(nil, payments, bookings, &carRepoMock{}, &userRepoMock{}, &gatewayMock{}, nil)

	_, err := svc.ListByBooking(context.Background(), 99, false, 7)
	require.Equal(t, ErrNotOwner, Code(err))

	got, err := svc.ListByBooking(context.Background(), 99, true, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func settlementNotification() []byte {
	return []byte(`{
		"order_id": "BOOK-7-9f3a2b1c",
		"status_code": "200",
		"gross_amount": "1620000.00",
		"transaction_status": "settlement",
		"transaction_id": "mid-txn-1",
		"signature_key": "irrelevant-here"
	}`)
}

func TestHandleNotification_SettlementConfirmsBooking(t *testing.T) {
	tally := &dbtest.Tally{}
	var appliedStatus model.PaymentStatus
	var bookingStatus model.BookingStatus
	recomputedCar := int64(0)

	payments := &paymentRepoMock{
		byOrderID: func(_ context.Context, orderID string) (*model.Payment, error) {
			require.Equal(t, "BOOK-7-9f3a2b1c", orderID)
			return &model.Payment{ID: 11, BookingID: 7, OrderID: orderID, Status: model.PaymentPending}, nil
		},
		applyNotification: func(_ context.Context, tx *sql.Tx, id int64, status model.PaymentStatus, transactionID, _ string, _ json.RawMessage) error {
			require.NotNil(t, tx)
			require.Equal(t, int64(11), id)
			require.Equal(t, "mid-txn-1", transactionID)
			appliedStatus = status
			return nil
		},
	}
	bookings := &bookingRepoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Booking, error) {
			require.Equal(t, int64(7), id)
			return pendingOnlineBooking(), nil
		},
		setStatus: func(_ context.Context, _ *sql.Tx, id int64, status model.BookingStatus) error {
			require.Equal(t, int64(7), id)
			bookingStatus = status
			return nil
		},
	}
	cars := &carRepoMock{
		recompute: func(_ context.Context, _ *sql.Tx, id int64) error {
			recomputedCar = id
			return nil
		},
	}
	gw := &gatewayMock{verify: func(_ midtransrepo.Notification) error { return nil }}

	svc := New(dbtest.Open(tally), payments, bookings, cars, &userRepoMock{}, gw, nil)
	err := svc.HandleNotification(context.Background(), settlementNotification())
	require.NoError(t, err)

	require.Equal(t, model.PaymentSettlement, appliedStatus)
	require.Equal(t, model.BookingConfirmed, bookingStatus)
	require.Equal(t, int64(12), recomputedCar)
	require.Equal(t, 1, tally.Commits)
	require.Equal(t, 0, tally.Rollbacks)
}

func TestHandleNotification_ReplayedSettlementIsNoop(t *testing.T) {
	tally := &dbtest.Tally{}
	payments := &paymentRepoMock{
		byOrderID: func(_ context.Context, orderID string) (*model.Payment, error) {
			return &model.Payment{ID: 11, BookingID: 7, OrderID: orderID, Status: model.PaymentSettlement}, nil
		},
	}
	bookings := &bookingRepoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, _ int64) (*model.Booking, error) {
			b := pendingOnlineBooking()
			b.Status = model.BookingConfirmed
			return b, nil
		},
		setStatus: func(_ context.Context, _ *sql.Tx, _ int64, _ model.BookingStatus) error {
			t.Fatal("a replayed settlement must not touch the booking again")
			return nil
		},
	}
	gw := &gatewayMock{verify: func(_ midtransrepo.Notification) error { return nil }}

	svc := New(dbtest.Open(tally), payments, bookings, &carRepoMock{}, &userRepoMock{}, gw, nil)
	err := svc.HandleNotification(context.Background(), settlementNotification())
	require.NoError(t, err)
	require.Equal(t, 1, tally.Commits)
}
