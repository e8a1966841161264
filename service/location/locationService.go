package locationsvc

import (
	"context"
	"database/sql"
	"errors"

	"carrental/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "LOCATION_NOT_FOUND"
	ErrInUse    ErrCode = "LOCATION_IN_USE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	Create(ctx context.Context, l *model.Location) error
	Update(ctx context.Context, l *model.Location) error
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Location, error)
	List(ctx context.Context) ([]model.Location, error)
}

type Service interface {
	Create(ctx context.Context, req model.LocationReq) (*model.Location, error)
	Update(ctx context.Context, id int64, req model.LocationReq) (*model.Location, error)
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Location, error)
	List(ctx context.Context) ([]model.Location, error)
}

type service struct{ repo Repo }

func New(repo Repo) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, req model.LocationReq) (*model.Location, error) {
	l := &model.Location{
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		Province: req.Province,
		Lat:      req.Lat,
		Lng:      req.Lng,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) Update(ctx context.Context, id int64, req model.LocationReq) (*model.Location, error) {
	l, err := s.repo.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, codedError{code: ErrNotFound}
		}
		return nil, err
	}
	l.Name = req.Name
	l.Address = req.Address
	l.City = req.City
	l.Province = req.Province
	l.Lat = req.Lat
	l.Lng = req.Lng
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return codedError{code: ErrNotFound}
	}
	// Bookings reference locations; the FK keeps a used location alive.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return codedError{code: ErrInUse}
	}
	return err
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Location, error) {
	l, err := s.repo.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, codedError{code: ErrNotFound}
		}
		return nil, err
	}
	return l, nil
}

func (s *service) List(ctx context.Context) ([]model.Location, error) {
	return s.repo.List(ctx)
}
