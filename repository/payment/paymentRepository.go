package paymentrepo

import (
	"context"
	"database/sql"
	"encoding/json"

	"carrental/model"
)

type Repo interface {
	// InsertPending records the checkout attempt before the gateway call so a
	// crash mid-call still leaves an auditable row.
	InsertPending(ctx context.Context, p *model.Payment) error
	UpdateFromGateway(ctx context.Context, id int64, transactionID, snapToken, redirectURL string, rawResponse json.RawMessage) error
	MarkFailed(ctx context.Context, id int64, rawResponse json.RawMessage) error

	ByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	ApplyNotification(ctx context.Context, tx *sql.Tx, id int64, status model.PaymentStatus, transactionID, fraudStatus string, rawNotify json.RawMessage) error

	ListByBooking(ctx context.Context, bookingID int64) ([]model.Payment, error)
	SettledRevenue(ctx context.Context) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const paymentCols = `id, booking_id, provider, order_id, transaction_id,
	snap_token, redirect_url, gross_amount, status, fraud_status, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	if err := row.Scan(
		&p.ID, &p.BookingID, &p.Provider, &p.OrderID, &p.TransactionID,
		&p.SnapToken, &p.RedirectURL, &p.GrossAmount, &p.Status, &p.FraudStatus,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) InsertPending(ctx context.Context, p *model.Payment) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payments (booking_id, provider, order_id, gross_amount, status, raw_request)
		VALUES ($1,$2,$3,$4,'pending',$5)
		RETURNING id, created_at`,
		p.BookingID, p.Provider, p.OrderID, p.GrossAmount, []byte(p.RawRequest),
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *repo) UpdateFromGateway(ctx context.Context, id int64, transactionID, snapToken, redirectURL string, rawResponse json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET transaction_id = NULLIF($2,''),
			snap_token     = NULLIF($3,''),
			redirect_url   = NULLIF($4,''),
			raw_response   = $5
		WHERE id=$1`,
		id, transactionID, snapToken, redirectURL, []byte(rawResponse))
	return err
}

func (r *repo) MarkFailed(ctx context.Context, id int64, rawResponse json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status='failed', raw_response=$2
		WHERE id=$1`,
		id, []byte(rawResponse))
	return err
}

func (r *repo) ByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE order_id=$1`, orderID))
}

func (r *repo) ApplyNotification(ctx context.Context, tx *sql.Tx, id int64, status model.PaymentStatus, transactionID, fraudStatus string, rawNotify json.RawMessage) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status=$2,
			transaction_id = COALESCE(NULLIF($3,''), transaction_id),
			fraud_status   = NULLIF($4,''),
			raw_notify     = $5
		WHERE id=$1`,
		id, status, transactionID, fraudStatus, []byte(rawNotify))
	return err
}

func (r *repo) ListByBooking(ctx context.Context, bookingID int64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentCols+` FROM payments
		WHERE booking_id=$1
		ORDER BY id DESC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repo) SettledRevenue(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(gross_amount), 0)
		FROM payments
		WHERE status='settlement'`).Scan(&n)
	return n, err
}
