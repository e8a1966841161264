package bookingsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carrental/model"
	"carrental/repository/cache"
	"carrental/service/pricing"
	"carrental/util/metrics"
)

// Repo is the slice of the booking repository this service needs.
type Repo interface {
	CountOverlapping(ctx context.Context, tx *sql.Tx, carID int64, pickup, ret time.Time) (int64, error)
	Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	InsertOption(ctx context.Context, tx *sql.Tx, o *model.BookingOption) error
	Detail(ctx context.Context, id int64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Booking, error)
	ListAll(ctx context.Context, status string) ([]model.Booking, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error
	AddonsByCodes(ctx context.Context, codes []string) ([]model.Addon, error)
}

type CarRepo interface {
	LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Car, error)
	RecomputeStatus(ctx context.Context, tx *sql.Tx, id int64) error
}

type CouponRepo interface {
	ByCode(ctx context.Context, code string) (*model.Coupon, error)
	IncrementUsage(ctx context.Context, tx *sql.Tx, id int64) error
}

type ErrCode string

const (
	ErrBadInput       ErrCode = "BAD_INPUT"
	ErrCarNotFound    ErrCode = "CAR_NOT_FOUND"
	ErrCarUnavailable ErrCode = "CAR_UNAVAILABLE"
	ErrDateConflict   ErrCode = "DATE_CONFLICT"
	ErrUnknownAddon   ErrCode = "UNKNOWN_ADDON"
	ErrCouponInvalid  ErrCode = "COUPON_INVALID"
	ErrNotFound       ErrCode = "BOOKING_NOT_FOUND"
	ErrNotOwner       ErrCode = "NOT_OWNER"
	ErrNotPending     ErrCode = "NOT_PENDING"
	ErrNotConfirmed   ErrCode = "NOT_CONFIRMED"
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

// Code extracts a service error code, or "" for unexpected errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	// Create recomputes every amount server-side and persists the booking and
	// its options in a single transaction holding a lock on the car row.
	Create(ctx context.Context, userID int64, req model.CreateBookingReq) (*model.Booking, error)

	MyBookings(ctx context.Context, userID int64) ([]model.Booking, error)
	Detail(ctx context.Context, userID int64, isAdmin bool, id int64) (*model.Booking, error)
	Cancel(ctx context.Context, userID, id int64) error

	// Admin operations. Confirm covers pay_at_location bookings; online_full
	// bookings are confirmed by the settlement webhook instead.
	ListAll(ctx context.Context, status string) ([]model.Booking, error)
	Confirm(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
}

type service struct {
	db      *sql.DB
	r       Repo
	cars    CarRepo
	coupons CouponRepo
	cache   *cache.CarCache
	now     func() time.Time
}

func New(db *sql.DB, r Repo, cars CarRepo, coupons CouponRepo, c *cache.CarCache) Service {
	return &service{db: db, r: r, cars: cars, coupons: coupons, cache: c, now: time.Now}
}

func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// parseWhen accepts RFC3339 timestamps and bare dates, matching what the
// storefront date pickers send.
func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (s *service) Create(ctx context.Context, userID int64, req model.CreateBookingReq) (*model.Booking, error) {
	pickup, err := parseWhen(req.PickupAt)
	if err != nil {
		return nil, wrapErr(ErrBadInput, errors.New("invalid pickup_at"))
	}
	ret, err := parseWhen(req.ReturnAt)
	if err != nil {
		return nil, wrapErr(ErrBadInput, errors.New("invalid return_at"))
	}
	if !ret.After(pickup) {
		return nil, wrapErr(ErrBadInput, pricing.ErrReturnBeforePickup)
	}

	// Addon prices always come from the catalog; a code the catalog does not
	// know is rejected rather than trusted. Repeated codes collapse to one so
	// an addon is never charged twice.
	codes := dedupe(req.AddonCodes)
	addons, err := s.r.AddonsByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	if len(addons) != len(codes) {
		return nil, makeErr(ErrUnknownAddon)
	}

	var coupon *model.Coupon
	if req.CouponCode != "" {
		coupon, err = s.coupons.ByCode(ctx, req.CouponCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, wrapErr(ErrCouponInvalid, errors.New("coupon not found"))
			}
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// The car row lock serializes concurrent bookings for the same car, so the
	// availability check and the insert below cannot interleave.
	car, err := s.cars.LockForUpdate(ctx, tx, req.CarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrCarNotFound)
		}
		return nil, err
	}
	if car.Status != model.CarAvailable {
		return nil, makeErr(ErrCarUnavailable)
	}

	overlaps, err := s.r.CountOverlapping(ctx, tx, car.ID, pickup, ret)
	if err != nil {
		return nil, err
	}
	if overlaps > 0 {
		return nil, makeErr(ErrDateConflict)
	}

	quote, err := pricing.BuildQuote(car.PricePerDay, pickup, ret, addons)
	if err != nil {
		return nil, wrapErr(ErrBadInput, err)
	}

	var discount int64
	if coupon != nil {
		discount, err = pricing.EvaluateCoupon(coupon, quote.Subtotal(), s.now())
		if err != nil {
			return nil, wrapErr(ErrCouponInvalid, err)
		}
		if err = s.coupons.IncrementUsage(ctx, tx, coupon.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = wrapErr(ErrCouponInvalid, pricing.ErrCouponExhausted)
			}
			return nil, err
		}
	}

	b := &model.Booking{
		UserID:            userID,
		CarID:             car.ID,
		PickupAt:          pickup,
		ReturnAt:          ret,
		PickupLocationID:  req.PickupLocationID,
		DropoffLocationID: req.DropoffLocationID,
		Status:            model.BookingPending,
		PaymentMethod:     model.PaymentMethod(req.PaymentMethod),
		Days:              quote.Days,
		BasePrice:         quote.BasePrice,
		ExtrasTotal:       quote.ExtrasTotal,
		Discount:          discount,
		TotalPrice:        quote.Subtotal() - discount,
	}
	if coupon != nil {
		b.CouponCode = &coupon.Code
	}

	if err = s.r.Insert(ctx, tx, b); err != nil {
		return nil, err
	}
	for i := range quote.Options {
		quote.Options[i].BookingID = b.ID
		if err = s.r.InsertOption(ctx, tx, &quote.Options[i]); err != nil {
			return nil, err
		}
	}
	b.Options = quote.Options

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	metrics.IncBookingCreated()
	return b, nil
}

func (s *service) MyBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) Detail(ctx context.Context, userID int64, isAdmin bool, id int64) (*model.Booking, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if !isAdmin && b.UserID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, userID, id int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.r.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if b.UserID != userID {
		return makeErr(ErrNotOwner)
	}
	if b.Status != model.BookingPending {
		return makeErr(ErrNotPending)
	}

	if err = s.r.SetStatus(ctx, tx, id, model.BookingCancelled); err != nil {
		return err
	}
	if err = s.cars.RecomputeStatus(ctx, tx, b.CarID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *service) ListAll(ctx context.Context, status string) ([]model.Booking, error) {
	return s.r.ListAll(ctx, status)
}

func (s *service) Confirm(ctx context.Context, id int64) (err error) {
	return s.transition(ctx, id, model.BookingPending, model.BookingConfirmed, ErrNotPending)
}

func (s *service) Complete(ctx context.Context, id int64) (err error) {
	return s.transition(ctx, id, model.BookingConfirmed, model.BookingCompleted, ErrNotConfirmed)
}

func (s *service) transition(ctx context.Context, id int64, from, to model.BookingStatus, notInFrom ErrCode) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.r.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if b.Status != from {
		return makeErr(notInFrom)
	}

	if err = s.r.SetStatus(ctx, tx, id, to); err != nil {
		return err
	}
	if err = s.cars.RecomputeStatus(ctx, tx, b.CarID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}
