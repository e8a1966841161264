package carsvc

import (
	"context"
	"database/sql"
	"errors"

	"carrental/model"
	"carrental/repository/cache"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repo is the slice of the car repository this service needs.
type Repo interface {
	Create(ctx context.Context, c *model.Car) error
	Update(ctx context.Context, c *model.Car) error
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Car, error)
	List(ctx context.Context, f model.CarFilter) ([]model.Car, error)
	LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Car, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.CarStatus) error
	RecomputeStatus(ctx context.Context, tx *sql.Tx, id int64) error
	AddImage(ctx context.Context, img *model.CarImage) error
	SetPrimaryImage(ctx context.Context, carID, imageID int64) error
}

type ErrCode string

const (
	ErrNotFound   ErrCode = "CAR_NOT_FOUND"
	ErrPlateTaken ErrCode = "PLATE_TAKEN"
	ErrBadInput   ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	List(ctx context.Context, f model.CarFilter) ([]model.Car, error)
	Detail(ctx context.Context, id int64) (*model.Car, error)
	Create(ctx context.Context, req model.CreateCarReq) (*model.Car, error)
	Update(ctx context.Context, id int64, req model.UpdateCarReq) (*model.Car, error)
	Delete(ctx context.Context, id int64) error

	// SetMaintenance toggles the manual maintenance flag. Taking a car off
	// maintenance re-derives its status from the bookings it still has.
	SetMaintenance(ctx context.Context, id int64, on bool) error

	AddImage(ctx context.Context, carID int64, url string) (*model.CarImage, error)
	SetPrimaryImage(ctx context.Context, carID, imageID int64) error
}

type service struct {
	db *sql.DB
	r  Repo
	c  *cache.CarCache
}

func New(db *sql.DB, r Repo, c *cache.CarCache) Service { return &service{db: db, r: r, c: c} }

func (s *service) List(ctx context.Context, f model.CarFilter) ([]model.Car, error) {
	if cars, ok := s.c.GetList(ctx, f); ok {
		return cars, nil
	}
	cars, err := s.r.List(ctx, f)
	if err != nil {
		return nil, err
	}
	s.c.SetList(ctx, f, cars)
	return cars, nil
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Car, error) {
	c, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (s *service) Create(ctx context.Context, req model.CreateCarReq) (*model.Car, error) {
	c := &model.Car{
		Brand:        req.Brand,
		Model:        req.Model,
		LicensePlate: req.LicensePlate,
		Year:         req.Year,
		Category:     req.Category,
		Transmission: model.Transmission(req.Transmission),
		FuelType:     req.FuelType,
		Seats:        req.Seats,
		PricePerDay:  req.PricePerDay,
		Status:       model.CarAvailable,
		Description:  req.Description,
		Features:     req.Features,
		LocationID:   req.LocationID,
		PartnerID:    req.PartnerID,
	}
	if err := s.r.Create(ctx, c); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, makeErr(ErrPlateTaken)
		}
		return nil, err
	}
	s.c.Invalidate(ctx)
	return c, nil
}

func (s *service) Update(ctx context.Context, id int64, req model.UpdateCarReq) (*model.Car, error) {
	cur, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	apply(&cur.Brand, req.Brand)
	apply(&cur.Model, req.Model)
	apply(&cur.Year, req.Year)
	apply(&cur.Category, req.Category)
	if req.Transmission != nil {
		cur.Transmission = model.Transmission(*req.Transmission)
	}
	apply(&cur.FuelType, req.FuelType)
	apply(&cur.Seats, req.Seats)
	apply(&cur.PricePerDay, req.PricePerDay)
	if req.Status != nil {
		cur.Status = model.CarStatus(*req.Status)
	}
	apply(&cur.Description, req.Description)
	if req.Features != nil {
		cur.Features = *req.Features
	}
	apply(&cur.LocationID, req.LocationID)
	if req.PartnerID != nil {
		cur.PartnerID = req.PartnerID
	}

	if err := s.r.Update(ctx, cur); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	s.c.Invalidate(ctx)
	return cur, nil
}

func (s *service) SetMaintenance(ctx context.Context, id int64, on bool) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.r.LockForUpdate(ctx, tx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}

	if on {
		err = s.r.SetStatus(ctx, tx, id, model.CarMaintenance)
	} else {
		// Clear the flag first so the recompute can derive rented or
		// available from the remaining bookings.
		if err = s.r.SetStatus(ctx, tx, id, model.CarAvailable); err == nil {
			err = s.r.RecomputeStatus(ctx, tx, id)
		}
	}
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	s.c.Invalidate(ctx)
	return nil
}

func apply[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	s.c.Invalidate(ctx)
	return nil
}

func (s *service) AddImage(ctx context.Context, carID int64, url string) (*model.CarImage, error) {
	if _, err := s.r.Detail(ctx, carID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	img := &model.CarImage{CarID: carID, URL: url}
	if err := s.r.AddImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *service) SetPrimaryImage(ctx context.Context, carID, imageID int64) error {
	if err := s.r.SetPrimaryImage(ctx, carID, imageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return nil
}
