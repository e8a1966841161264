package couponsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carrental/model"
	"carrental/service/pricing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type ErrCode string

const (
	ErrNotFound  ErrCode = "COUPON_NOT_FOUND"
	ErrInvalid   ErrCode = "COUPON_INVALID"
	ErrCodeTaken ErrCode = "CODE_TAKEN"
	ErrBadInput  ErrCode = "BAD_INPUT"
)

type codedError struct {
	code ErrCode
	err  error
}

func (e codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.err }

func makeErr(c ErrCode) error            { return codedError{code: c} }
func wrapErr(c ErrCode, err error) error { return codedError{code: c, err: err} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	Create(ctx context.Context, c *model.Coupon) error
	Update(ctx context.Context, c *model.Coupon) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Coupon, error)
	ByCode(ctx context.Context, code string) (*model.Coupon, error)
}

type CarRepo interface {
	Detail(ctx context.Context, id int64) (*model.Car, error)
}

type AddonRepo interface {
	AddonsByCodes(ctx context.Context, codes []string) ([]model.Addon, error)
}

// ValidationResult is what the storefront shows after the "apply coupon" call.
type ValidationResult struct {
	Coupon     *model.Coupon `json:"coupon"`
	OrderTotal int64         `json:"order_total"`
	Discount   int64         `json:"discount"`
	FinalTotal int64         `json:"final_total"`
}

type Service interface {
	// Validate checks a code against an order and computes the discount. It
	// never increments the usage counter; booking creation does that.
	Validate(ctx context.Context, req model.ValidateCouponReq) (*ValidationResult, error)

	List(ctx context.Context) ([]model.Coupon, error)
	Create(ctx context.Context, req model.CreateCouponReq) (*model.Coupon, error)
	Update(ctx context.Context, id int64, req model.CreateCouponReq) (*model.Coupon, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	r      Repo
	cars   CarRepo
	addons AddonRepo
	now    func() time.Time
}

func New(r Repo, cars CarRepo, addons AddonRepo) Service {
	return &service{r: r, cars: cars, addons: addons, now: time.Now}
}

func (s *service) Validate(ctx context.Context, req model.ValidateCouponReq) (*ValidationResult, error) {
	c, err := s.r.ByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	total, err := s.orderTotal(ctx, req)
	if err != nil {
		return nil, err
	}

	discount, err := pricing.EvaluateCoupon(c, total, s.now())
	if err != nil {
		return nil, wrapErr(ErrInvalid, err)
	}

	return &ValidationResult{
		Coupon:     c,
		OrderTotal: total,
		Discount:   discount,
		FinalTotal: total - discount,
	}, nil
}

// orderTotal recomputes the order server-side when a car/date combination is
// given, using the same day-count formula as booking creation; otherwise it
// falls back to the client's cart total.
func (s *service) orderTotal(ctx context.Context, req model.ValidateCouponReq) (int64, error) {
	if req.CarID == 0 {
		return req.CartTotal, nil
	}

	pickup, err := parseWhen(req.PickupAt)
	if err != nil {
		return 0, wrapErr(ErrBadInput, errors.New("invalid pickup_at"))
	}
	ret, err := parseWhen(req.ReturnAt)
	if err != nil {
		return 0, wrapErr(ErrBadInput, errors.New("invalid return_at"))
	}

	car, err := s.cars.Detail(ctx, req.CarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, wrapErr(ErrBadInput, errors.New("car not found"))
		}
		return 0, err
	}

	addons, err := s.addons.AddonsByCodes(ctx, req.AddonCodes)
	if err != nil {
		return 0, err
	}

	q, err := pricing.BuildQuote(car.PricePerDay, pickup, ret, addons)
	if err != nil {
		return 0, wrapErr(ErrBadInput, err)
	}
	return q.Subtotal(), nil
}

func parseWhen(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func (s *service) List(ctx context.Context) ([]model.Coupon, error) {
	return s.r.List(ctx)
}

func (s *service) Create(ctx context.Context, req model.CreateCouponReq) (*model.Coupon, error) {
	c, err := fromReq(req)
	if err != nil {
		return nil, err
	}
	if err := s.r.Create(ctx, c); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, makeErr(ErrCodeTaken)
		}
		return nil, err
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, id int64, req model.CreateCouponReq) (*model.Coupon, error) {
	c, err := fromReq(req)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.r.Update(ctx, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return nil
}

func fromReq(req model.CreateCouponReq) (*model.Coupon, error) {
	c := &model.Coupon{
		Code:     req.Code,
		Type:     model.CouponType(req.Type),
		Value:    req.Value,
		MinOrder: req.MinOrder,
		MaxUses:  req.MaxUses,
		IsActive: true,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if c.Type == model.CouponPercent && c.Value > 100 {
		return nil, wrapErr(ErrBadInput, errors.New("percent value over 100"))
	}
	if req.StartsAt != "" {
		t, err := parseWhen(req.StartsAt)
		if err != nil {
			return nil, wrapErr(ErrBadInput, errors.New("invalid starts_at"))
		}
		c.StartsAt = &t
	}
	if req.ExpiresAt != "" {
		t, err := parseWhen(req.ExpiresAt)
		if err != nil {
			return nil, wrapErr(ErrBadInput, errors.New("invalid expires_at"))
		}
		c.ExpiresAt = &t
	}
	return c, nil
}
