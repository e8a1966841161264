// Package cleanupsvc sweeps stale state lazily. There is no background
// scheduler; the sweep runs whenever an admin opens the dashboard, so a quiet
// deployment does no work at all.
package cleanupsvc

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"carrental/repository/cache"
)

type BookingRepo interface {
	// CompletePastReturn flips confirmed bookings whose return time has passed
	// to completed and reports the affected car ids.
	CompletePastReturn(ctx context.Context, tx *sql.Tx, now time.Time) ([]int64, error)
}

type CarRepo interface {
	RecomputeStatus(ctx context.Context, tx *sql.Tx, id int64) error
}

type CouponRepo interface {
	DeactivateStale(ctx context.Context, tx *sql.Tx, now time.Time) (int64, error)
}

type Result struct {
	BookingsCompleted  int   `json:"bookings_completed"`
	CouponsDeactivated int64 `json:"coupons_deactivated"`
}

type Service interface {
	Run(ctx context.Context) (Result, error)
}

type service struct {
	db       *sql.DB
	bookings BookingRepo
	cars     CarRepo
	coupons  CouponRepo
	cache    *cache.CarCache
	log      *slog.Logger
	now      func() time.Time
}

func New(db *sql.DB, b BookingRepo, cars CarRepo, coupons CouponRepo, cc *cache.CarCache, log *slog.Logger) Service {
	return &service{db: db, bookings: b, cars: cars, coupons: coupons, cache: cc, log: log, now: time.Now}
}

func (s *service) Run(ctx context.Context) (res Result, err error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	carIDs, err := s.bookings.CompletePastReturn(ctx, tx, now)
	if err != nil {
		return res, err
	}
	for _, id := range carIDs {
		if err = s.cars.RecomputeStatus(ctx, tx, id); err != nil {
			return res, err
		}
	}

	deactivated, err := s.coupons.DeactivateStale(ctx, tx, now)
	if err != nil {
		return res, err
	}

	if err = tx.Commit(); err != nil {
		return res, err
	}

	res.BookingsCompleted = len(carIDs)
	res.CouponsDeactivated = deactivated

	if res.BookingsCompleted > 0 {
		s.cache.Invalidate(ctx)
	}
	if res.BookingsCompleted > 0 || res.CouponsDeactivated > 0 {
		s.log.Info("cleanup sweep",
			"bookings_completed", res.BookingsCompleted,
			"coupons_deactivated", res.CouponsDeactivated)
	}
	return res, nil
}
