package partnerrepo

import (
	"context"
	"database/sql"

	"carrental/model"
)

type Repo interface {
	Create(ctx context.Context, p *model.RentalPartner) error
	Update(ctx context.Context, p *model.RentalPartner) error
	// Deactivate is the delete operation: partners are never hard-deleted.
	Deactivate(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.RentalPartner, error)
	List(ctx context.Context, includeInactive bool) ([]model.RentalPartner, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const partnerCols = `id, name, address, city, province, phone, email, status, created_at`

func scanPartner(row interface{ Scan(...any) error }) (*model.RentalPartner, error) {
	var p model.RentalPartner
	if err := row.Scan(&p.ID, &p.Name, &p.Address, &p.City, &p.Province,
		&p.Phone, &p.Email, &p.Status, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, p *model.RentalPartner) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO rental_partners (name, address, city, province, phone, email, status)
		VALUES ($1,$2,$3,$4,$5,$6,'active')
		RETURNING id, status, created_at`,
		p.Name, p.Address, p.City, p.Province, p.Phone, p.Email,
	).Scan(&p.ID, &p.Status, &p.CreatedAt)
}

func (r *repo) Update(ctx context.Context, p *model.RentalPartner) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rental_partners
		SET name=$2, address=$3, city=$4, province=$5, phone=$6, email=$7, status=$8
		WHERE id=$1`,
		p.ID, p.Name, p.Address, p.City, p.Province, p.Phone, p.Email, p.Status,
	)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rental_partners SET status='inactive' WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.RentalPartner, error) {
	return scanPartner(r.db.QueryRowContext(ctx,
		`SELECT `+partnerCols+` FROM rental_partners WHERE id=$1`, id))
}

func (r *repo) List(ctx context.Context, includeInactive bool) ([]model.RentalPartner, error) {
	q := `SELECT ` + partnerCols + ` FROM rental_partners`
	if !includeInactive {
		q += ` WHERE status='active'`
	}
	q += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RentalPartner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
