package locationrepo

import (
	"context"
	"database/sql"

	"carrental/model"
)

type Repo interface {
	Create(ctx context.Context, l *model.Location) error
	Update(ctx context.Context, l *model.Location) error
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Location, error)
	List(ctx context.Context) ([]model.Location, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, l *model.Location) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO locations (name, address, city, province, lat, lng)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		l.Name, l.Address, l.City, l.Province, l.Lat, l.Lng,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *repo) Update(ctx context.Context, l *model.Location) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE locations
		SET name=$2, address=$3, city=$4, province=$5, lat=$6, lng=$7
		WHERE id=$1`,
		l.ID, l.Name, l.Address, l.City, l.Province, l.Lat, l.Lng,
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Location, error) {
	l := &model.Location{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, address, city, province, lat, lng, created_at
		FROM locations WHERE id=$1`, id,
	).Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.Province, &l.Lat, &l.Lng, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) List(ctx context.Context) ([]model.Location, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, address, city, province, lat, lng, created_at
		FROM locations ORDER BY city, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.Province, &l.Lat, &l.Lng, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
