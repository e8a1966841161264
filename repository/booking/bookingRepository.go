package bookingrepo

import (
	"context"
	"database/sql"
	"time"

	"carrental/model"
)

type Repo interface {
	// Inside the booking transaction (car row already locked FOR UPDATE).
	CountOverlapping(ctx context.Context, tx *sql.Tx, carID int64, pickup, ret time.Time) (int64, error)
	Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	InsertOption(ctx context.Context, tx *sql.Tx, o *model.BookingOption) error

	Detail(ctx context.Context, id int64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Booking, error)
	ListAll(ctx context.Context, status string) ([]model.Booking, error)

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error

	// CompletePastReturn flips confirmed bookings whose return date has passed
	// to completed and returns the ids of the affected cars.
	CompletePastReturn(ctx context.Context, tx *sql.Tx, now time.Time) ([]int64, error)

	AddonsByCodes(ctx context.Context, codes []string) ([]model.Addon, error)

	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

// Half-open overlap: an existing [pickup, return) blocks the requested range
// when existing.pickup < req.return AND existing.return > req.pickup.
func (r *repo) CountOverlapping(ctx context.Context, tx *sql.Tx, carID int64, pickup, ret time.Time) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM bookings
		WHERE car_id = $1
		  AND status IN ('pending','confirmed')
		  AND pickup_at < $3
		  AND return_at > $2`
	var n int64
	err := tx.QueryRowContext(ctx, q, carID, pickup, ret).Scan(&n)
	return n, err
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO bookings (user_id, car_id, pickup_at, return_at,
			pickup_location_id, dropoff_location_id, status, payment_method,
			days, base_price, extras_total, discount, total_price, coupon_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at`,
		b.UserID, b.CarID, b.PickupAt, b.ReturnAt,
		b.PickupLocationID, b.DropoffLocationID, b.Status, b.PaymentMethod,
		b.Days, b.BasePrice, b.ExtrasTotal, b.Discount, b.TotalPrice, b.CouponCode,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *repo) InsertOption(ctx context.Context, tx *sql.Tx, o *model.BookingOption) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO booking_options (booking_id, code, label, price_per_day, total)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		o.BookingID, o.Code, o.Label, o.PricePerDay, o.Total,
	).Scan(&o.ID)
}

const bookingCols = `id, user_id, car_id, pickup_at, return_at,
	pickup_location_id, dropoff_location_id, status, payment_method,
	days, base_price, extras_total, discount, total_price, coupon_code, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(
		&b.ID, &b.UserID, &b.CarID, &b.PickupAt, &b.ReturnAt,
		&b.PickupLocationID, &b.DropoffLocationID, &b.Status, &b.PaymentMethod,
		&b.Days, &b.BasePrice, &b.ExtrasTotal, &b.Discount, &b.TotalPrice,
		&b.CouponCode, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, booking_id, code, label, price_per_day, total
		FROM booking_options
		WHERE booking_id=$1
		ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o model.BookingOption
		if err := rows.Scan(&o.ID, &o.BookingID, &o.Code, &o.Label, &o.PricePerDay, &o.Total); err != nil {
			return nil, err
		}
		b.Options = append(b.Options, o)
	}
	return b, rows.Err()
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookingCols+` FROM bookings
		WHERE user_id=$1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repo) ListAll(ctx context.Context, status string) ([]model.Booking, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+bookingCols+` FROM bookings
			WHERE status=$1
			ORDER BY created_at DESC, id DESC`, status)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+bookingCols+` FROM bookings
			ORDER BY created_at DESC, id DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows *sql.Rows) ([]model.Booking, error) {
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
}

func (r *repo) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status=$2 WHERE id=$1`, id, status)
	return err
}

func (r *repo) CompletePastReturn(ctx context.Context, tx *sql.Tx, now time.Time) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `
		UPDATE bookings
		SET status='completed'
		WHERE status='confirmed' AND return_at <= $1
		RETURNING car_id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		carIDs = append(carIDs, id)
	}
	return carIDs, rows.Err()
}

func (r *repo) AddonsByCodes(ctx context.Context, codes []string) ([]model.Addon, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, label, price_per_day, active
		FROM booking_addons
		WHERE code = ANY($1) AND active`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Addon
	for rows.Next() {
		var a model.Addon
		if err := rows.Scan(&a.ID, &a.Code, &a.Label, &a.PricePerDay, &a.Active); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var s string
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
