package partnersvc

import (
	"context"
	"database/sql"
	"errors"

	"carrental/model"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "PARTNER_NOT_FOUND"
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
	Create(ctx context.Context, p *model.RentalPartner) error
	Update(ctx context.Context, p *model.RentalPartner) error
	Deactivate(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.RentalPartner, error)
	List(ctx context.Context, includeInactive bool) ([]model.RentalPartner, error)
}

type Service interface {
	Create(ctx context.Context, req model.PartnerReq) (*model.RentalPartner, error)
	Update(ctx context.Context, id int64, req model.PartnerReq) (*model.RentalPartner, error)
	Deactivate(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.RentalPartner, error)
	List(ctx context.Context, includeInactive bool) ([]model.RentalPartner, error)
}

type service struct{ repo Repo }

func New(repo Repo) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, req model.PartnerReq) (*model.RentalPartner, error) {
	p := &model.RentalPartner{
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		Province: req.Province,
		Phone:    req.Phone,
		Email:    req.Email,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, id int64, req model.PartnerReq) (*model.RentalPartner, error) {
	p, err := s.repo.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, codedError{code: ErrNotFound}
		}
		return nil, err
	}
	p.Name = req.Name
	p.Address = req.Address
	p.City = req.City
	p.Province = req.Province
	p.Phone = req.Phone
	p.Email = req.Email
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return codedError{code: ErrNotFound}
		}
		return err
	}
	return nil
}

func (s *service) Detail(ctx context.Context, id int64) (*model.RentalPartner, error) {
	p, err := s.repo.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, codedError{code: ErrNotFound}
		}
		return nil, err
	}
	return p, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]model.RentalPartner, error) {
	return s.repo.List(ctx, includeInactive)
}
