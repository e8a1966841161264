package couponrepo

import (
	"context"
	"database/sql"
	"time"

	"carrental/model"
)

type Repo interface {
	Create(ctx context.Context, c *model.Coupon) error
	Update(ctx context.Context, c *model.Coupon) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Coupon, error)

	// ByCode is a case-sensitive exact match.
	ByCode(ctx context.Context, code string) (*model.Coupon, error)

	// IncrementUsage bumps used_count inside the booking transaction, guarded
	// against racing past the cap.
	IncrementUsage(ctx context.Context, tx *sql.Tx, id int64) error

	// DeactivateStale flips coupons past expiry or at/over their usage cap to
	// inactive and returns how many rows changed.
	DeactivateStale(ctx context.Context, tx *sql.Tx, now time.Time) (int64, error)

	CountActive(ctx context.Context) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const couponCols = `id, code, type, value, min_order, max_uses, used_count,
	starts_at, expires_at, is_active, created_at`

func scanCoupon(row interface{ Scan(...any) error }) (*model.Coupon, error) {
	var c model.Coupon
	if err := row.Scan(
		&c.ID, &c.Code, &c.Type, &c.Value, &c.MinOrder, &c.MaxUses,
		&c.UsedCount, &c.StartsAt, &c.ExpiresAt, &c.IsActive, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, c *model.Coupon) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO coupons (code, type, value, min_order, max_uses, starts_at, expires_at, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, used_count, created_at`,
		c.Code, c.Type, c.Value, c.MinOrder, c.MaxUses, c.StartsAt, c.ExpiresAt, c.IsActive,
	).Scan(&c.ID, &c.UsedCount, &c.CreatedAt)
}

func (r *repo) Update(ctx context.Context, c *model.Coupon) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET type=$2, value=$3, min_order=$4, max_uses=$5, starts_at=$6,
			expires_at=$7, is_active=$8
		WHERE id=$1`,
		c.ID, c.Type, c.Value, c.MinOrder, c.MaxUses, c.StartsAt, c.ExpiresAt, c.IsActive,
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) List(ctx context.Context) ([]model.Coupon, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+couponCols+` FROM coupons ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repo) ByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx,
		`SELECT `+couponCols+` FROM coupons WHERE code=$1`, code))
}

func (r *repo) IncrementUsage(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id=$1 AND (max_uses = 0 OR used_count < max_uses)`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) DeactivateStale(ctx context.Context, tx *sql.Tx, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE coupons
		SET is_active = false
		WHERE is_active
		  AND ((expires_at IS NOT NULL AND expires_at <= $1)
		    OR (max_uses > 0 AND used_count >= max_uses))`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coupons WHERE is_active`).Scan(&n)
	return n, err
}
