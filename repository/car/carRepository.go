package carrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"carrental/model"
)

type Repo interface {
	Create(ctx context.Context, c *model.Car) error
	Update(ctx context.Context, c *model.Car) error
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Car, error)
	List(ctx context.Context, f model.CarFilter) ([]model.Car, error)

	// LockForUpdate loads the car row under FOR UPDATE inside a booking
	// transaction, so an availability check and the insert are isolated.
	LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Car, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.CarStatus) error
	RecomputeStatus(ctx context.Context, tx *sql.Tx, id int64) error

	AddImage(ctx context.Context, img *model.CarImage) error
	ImagesByCar(ctx context.Context, carID int64) ([]model.CarImage, error)
	SetPrimaryImage(ctx context.Context, carID, imageID int64) error

	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const carCols = `id, brand, model, license_plate, year, category, transmission,
	fuel_type, seats, price_per_day, status, description, features,
	location_id, partner_id, created_at`

func scanCar(row interface{ Scan(...any) error }) (*model.Car, error) {
	var c model.Car
	var features []byte
	if err := row.Scan(
		&c.ID, &c.Brand, &c.Model, &c.LicensePlate, &c.Year, &c.Category,
		&c.Transmission, &c.FuelType, &c.Seats, &c.PricePerDay, &c.Status,
		&c.Description, &features, &c.LocationID, &c.PartnerID, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &c.Features); err != nil {
			return nil, fmt.Errorf("decode features: %w", err)
		}
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, c *model.Car) error {
	features, err := json.Marshal(c.Features)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO cars (brand, model, license_plate, year, category, transmission,
			fuel_type, seats, price_per_day, status, description, features,
			location_id, partner_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at`,
		c.Brand, c.Model, c.LicensePlate, c.Year, c.Category, c.Transmission,
		c.FuelType, c.Seats, c.PricePerDay, c.Status, c.Description, features,
		c.LocationID, c.PartnerID,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *repo) Update(ctx context.Context, c *model.Car) error {
	features, err := json.Marshal(c.Features)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE cars
		SET brand=$2, model=$3, year=$4, category=$5, transmission=$6,
			fuel_type=$7, seats=$8, price_per_day=$9, status=$10,
			description=$11, features=$12, location_id=$13, partner_id=$14
		WHERE id=$1`,
		c.ID, c.Brand, c.Model, c.Year, c.Category, c.Transmission,
		c.FuelType, c.Seats, c.PricePerDay, c.Status, c.Description, features,
		c.LocationID, c.PartnerID,
	)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Car, error) {
	c, err := scanCar(r.db.QueryRowContext(ctx,
		`SELECT `+carCols+` FROM cars WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	imgs, err := r.ImagesByCar(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Images = imgs
	return c, nil
}

// List applies the catalog filters. When a pickup/return pair is present the
// availability test excludes cars with an overlapping active booking using the
// half-open interval rule (existing.pickup < req.return AND existing.return >
// req.pickup); without dates it falls back to status='available'.
func (r *repo) List(ctx context.Context, f model.CarFilter) ([]model.Car, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, "c.category = "+arg(f.Category))
	}
	if f.Transmission != "" {
		where = append(where, "c.transmission = "+arg(f.Transmission))
	}
	if f.LocationID > 0 {
		where = append(where, "c.location_id = "+arg(f.LocationID))
	}
	if f.MinPrice > 0 {
		where = append(where, "c.price_per_day >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		where = append(where, "c.price_per_day <= "+arg(f.MaxPrice))
	}

	if f.PickupDate != nil && f.ReturnDate != nil {
		where = append(where, fmt.Sprintf(`c.status <> 'maintenance' AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.car_id = c.id
			  AND b.status IN ('pending','confirmed')
			  AND b.pickup_at < %s AND b.return_at > %s
		)`, arg(*f.ReturnDate), arg(*f.PickupDate)))
	} else {
		where = append(where, "c.status = 'available'")
	}

	q := `SELECT c.id, c.brand, c.model, c.license_plate, c.year, c.category,
		c.transmission, c.fuel_type, c.seats, c.price_per_day, c.status,
		c.description, c.features, c.location_id, c.partner_id, c.created_at
	FROM cars c
	WHERE ` + strings.Join(where, " AND ") + `
	ORDER BY c.id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repo) LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Car, error) {
	return scanCar(tx.QueryRowContext(ctx,
		`SELECT `+carCols+` FROM cars WHERE id=$1 FOR UPDATE`, id))
}

func (r *repo) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.CarStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE cars SET status=$2 WHERE id=$1`, id, status)
	return err
}

// RecomputeStatus derives the car status from its bookings: a manual
// maintenance flag wins, any confirmed booking means rented, and a car with no
// active bookings left reverts to available.
func (r *repo) RecomputeStatus(ctx context.Context, tx *sql.Tx, id int64) error {
	const q = `
		UPDATE cars SET status = CASE
			WHEN status = 'maintenance' THEN 'maintenance'
			WHEN EXISTS (
				SELECT 1 FROM bookings WHERE car_id = cars.id AND status = 'confirmed'
			) THEN 'rented'
			WHEN NOT EXISTS (
				SELECT 1 FROM bookings WHERE car_id = cars.id AND status IN ('pending','confirmed')
			) THEN 'available'
			ELSE status
		END
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

func (r *repo) AddImage(ctx context.Context, img *model.CarImage) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO car_images (car_id, url, sort_order, is_primary)
		VALUES ($1, $2,
			COALESCE((SELECT MAX(sort_order)+1 FROM car_images WHERE car_id=$1), 0),
			NOT EXISTS (SELECT 1 FROM car_images WHERE car_id=$1))
		RETURNING id, sort_order, is_primary`,
		img.CarID, img.URL,
	).Scan(&img.ID, &img.SortOrder, &img.IsPrimary)
}

func (r *repo) ImagesByCar(ctx context.Context, carID int64) ([]model.CarImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, car_id, url, sort_order, is_primary
		FROM car_images
		WHERE car_id=$1
		ORDER BY sort_order`, carID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CarImage
	for rows.Next() {
		var img model.CarImage
		if err := rows.Scan(&img.ID, &img.CarID, &img.URL, &img.SortOrder, &img.IsPrimary); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *repo) SetPrimaryImage(ctx context.Context, carID, imageID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`UPDATE car_images SET is_primary=false WHERE car_id=$1`, carID); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE car_images SET is_primary=true WHERE id=$1 AND car_id=$2`, imageID, carID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		err = sql.ErrNoRows
		return err
	}
	return tx.Commit()
}

func (r *repo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM cars GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
