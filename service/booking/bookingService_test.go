package bookingsvc

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"carrental/model"
	"carrental/service/pricing"
	"carrental/util/database/dbtest"

	"github.com/stretchr/testify/require"
)

type repoMock struct {
	countOverlappingFn func(ctx context.Context, tx *sql.Tx, carID int64, pickup, ret time.Time) (int64, error)
	insertFn           func(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	insertOptionFn     func(ctx context.Context, tx *sql.Tx, o *model.BookingOption) error
	detailFn           func(ctx context.Context, id int64) (*model.Booking, error)
	listByUserFn       func(ctx context.Context, userID int64) ([]model.Booking, error)
	listAllFn          func(ctx context.Context, status string) ([]model.Booking, error)
	addonsFn           func(ctx context.Context, codes []string) ([]model.Addon, error)
}

func (m *repoMock) CountOverlapping(ctx context.Context, tx *sql.Tx, carID int64, pickup, ret time.Time) (int64, error) {
	return m.countOverlappingFn(ctx, tx, carID, pickup, ret)
}
func (m *repoMock) Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if m.insertFn == nil {
		return nil
	}
	return m.insertFn(ctx, tx, b)
}
func (m *repoMock) InsertOption(ctx context.Context, tx *sql.Tx, o *model.BookingOption) error {
	if m.insertOptionFn == nil {
		return nil
	}
	return m.insertOptionFn(ctx, tx, o)
}
func (m *repoMock) Detail(ctx context.Context, id int64) (*model.Booking, error) {
	return m.detailFn(ctx, id)
}
func (m *repoMock) ListByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	return m.listByUserFn(ctx, userID)
}
func (m *repoMock) ListAll(ctx context.Context, status string) ([]model.Booking, error) {
	return m.listAllFn(ctx, status)
}
func (m *repoMock) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error) {
	return nil, sql.ErrNoRows
}
func (m *repoMock) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	return nil
}
func (m *repoMock) AddonsByCodes(ctx context.Context, codes []string) ([]model.Addon, error) {
	if m.addonsFn == nil {
		return nil, nil
	}
	return m.addonsFn(ctx, codes)
}

type carRepoMock struct {
	lockFn      func(ctx context.Context, tx *sql.Tx, id int64) (*model.Car, error)
	recomputeFn func(ctx context.Context, tx *sql.Tx, id int64) error
}

func (m *carRepoMock) LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Car, error) {
	if m.lockFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.lockFn(ctx, tx, id)
}
func (m *carRepoMock) RecomputeStatus(ctx context.Context, tx *sql.Tx, id int64) error {
	if m.recomputeFn == nil {
		return nil
	}
	return m.recomputeFn(ctx, tx, id)
}

type couponRepoMock struct {
	byCodeFn    func(ctx context.Context, code string) (*model.Coupon, error)
	incrementFn func(ctx context.Context, tx *sql.Tx, id int64) error
}

func (m *couponRepoMock) ByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return m.byCodeFn(ctx, code)
}
func (m *couponRepoMock) IncrementUsage(ctx context.Context, tx *sql.Tx, id int64) error {
	if m.incrementFn == nil {
		return nil
	}
	return m.incrementFn(ctx, tx, id)
}

func validReq() model.CreateBookingReq {
	return model.CreateBookingReq{
		CarID:            1,
		PickupAt:         "2024-03-01",
		ReturnAt:         "2024-03-04",
		PickupLocationID: 1,
		PaymentMethod:    "pay_at_location",
	}
}

func TestCreate_InvalidDates(t *testing.T) {
	s := New(nil, &repoMock{}, &carRepoMock{}, &couponRepoMock{}, nil)

	req := validReq()
	req.PickupAt = "not-a-date"
	_, err := s.Create(context.Background(), 1, req)
	require.Equal(t, ErrBadInput, Code(err))

	req = validReq()
	req.ReturnAt = req.PickupAt
	_, err = s.Create(context.Background(), 1, req)
	require.Equal(t, ErrBadInput, Code(err))
	require.ErrorIs(t, err, pricing.ErrReturnBeforePickup)
}

func TestCreate_UnknownAddonRejected(t *testing.T) {
	m := &repoMock{
		addonsFn: func(ctx context.Context, codes []string) ([]model.Addon, error) {
			// Catalog resolves only one of the two requested codes.
			return []model.Addon{{Code: "insurance", PricePerDay: 100000, Active: true}}, nil
		},
	}
	s := New(nil, m, &carRepoMock{}, &couponRepoMock{}, nil)

	req := validReq()
	req.AddonCodes = []string{"insurance", "jetpack"}
	_, err := s.Create(context.Background(), 1, req)
	require.Equal(t, ErrUnknownAddon, Code(err))
}

func TestCreate_CouponNotFound(t *testing.T) {
	cm := &couponRepoMock{
		byCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := New(nil, &repoMock{}, &carRepoMock{}, cm, nil)

	req := validReq()
	req.CouponCode = "NOPE"
	_, err := s.Create(context.Background(), 1, req)
	require.Equal(t, ErrCouponInvalid, Code(err))
}

func TestMyBookings(t *testing.T) {
	m := &repoMock{
		listByUserFn: func(ctx context.Context, userID int64) ([]model.Booking, error) {
			require.Equal(t, int64(7), userID)
			return []model.Booking{{ID: 1, UserID: 7}}, nil
		},
	}
	s := New(nil, m, &carRepoMock{}, &couponRepoMock{}, nil)

	rows, err := s.MyBookings(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDetail_OwnerCheck(t *testing.T) {
	m := &repoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Booking, error) {
			return &model.Booking{ID: id, UserID: 7}, nil
		},
	}
	s := New(nil, m, &carRepoMock{}, &couponRepoMock{}, nil)

	_, err := s.Detail(context.Background(), 9, false, 1)
	require.Equal(t, ErrNotOwner, Code(err))

	b, err := s.Detail(context.Background(), 7, false, 1)
	require.NoError(t, err)
	require.Equal(t, int64(7), b.UserID)

	// Admins may read any booking.
	b, err = s.Detail(context.Background(), 9, true, 1)
	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Booking, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := New(nil, m, &carRepoMock{}, &couponRepoMock{}, nil)

	_, err := s.Detail(context.Background(), 7, false, 404)
	require.Equal(t, ErrNotFound, Code(err))
}

func availableCar() *model.Car {
	return &model.Car{ID: 1, Status: model.CarAvailable, PricePerDay: 500000}
}

func TestCreate_OverlapRejected(t *testing.T) {
	tally := &dbtest.Tally{}
	m := &repoMock{
		countOverlappingFn: func(_ context.Context, tx *sql.Tx, carID int64, _, _ time.Time) (int64, error) {
			require.NotNil(t, tx)
			require.Equal(t, int64(1), carID)
			return 1, nil
		},
		insertFn: func(_ context.Context, _ *sql.Tx, _ *model.Booking) error {
			t.Fatal("insert must not run when the dates overlap")
			return nil
		},
	}
	cars := &carRepoMock{
		lockFn: func(_ context.Context, _ *sql.Tx, _ int64) (*model.Car, error) {
			return availableCar(), nil
		},
	}
	s := New(dbtest.Open(tally), m, cars, &couponRepoMock{}, nil)

	_, err := s.Create(context.Background(), 1, validReq())
	require.Equal(t, ErrDateConflict, Code(err))
	require.Equal(t, 0, tally.Commits)
	require.Equal(t, 1, tally.Rollbacks)
}

func TestCreate_CarNotAvailable(t *testing.T) {
	tally := &dbtest.Tally{}
	cars := &carRepoMock{
		lockFn: func(_ context.Context, _ *sql.Tx, _ int64) (*model.Car, error) {
			return &model.Car{ID: 1, Status: model.CarMaintenance}, nil
		},
	}
	s := New(dbtest.Open(tally), &repoMock{}, cars, &couponRepoMock{}, nil)

	_, err := s.Create(context.Background(), 1, validReq())
	require.Equal(t, ErrCarUnavailable, Code(err))
	require.Equal(t, 1, tally.Rollbacks)
}

func TestCreate_CommitsQuoteAndCouponUsage(t *testing.T) {
	tally := &dbtest.Tally{}
	var inserted *model.Booking
	var optionRows []model.BookingOption
	usageBumps := 0

	m := &repoMock{
		countOverlappingFn: func(_ context.Context, _ *sql.Tx, _ int64, _, _ time.Time) (int64, error) {
			return 0, nil
		},
		addonsFn: func(_ context.Context, codes []string) ([]model.Addon, error) {
			require.Equal(t, []string{"insurance"}, codes)
			return []model.Addon{{Code: "insurance", Label: "Insurance", PricePerDay: 100000, Active: true}}, nil
		},
		insertFn: func(_ context.Context, _ *sql.Tx, b *model.Booking) error {
			b.ID = 42
			inserted = b
			return nil
		},
		insertOptionFn: func(_ context.Context, _ *sql.Tx, o *model.BookingOption) error {
			optionRows = append(optionRows, *o)
			return nil
		},
	}
	cars := &carRepoMock{
		lockFn: func(_ context.Context, _ *sql.Tx, _ int64) (*model.Car, error) {
			return availableCar(), nil
		},
	}
	coupons := &couponRepoMock{
		byCodeFn: func(_ context.Context, code string) (*model.Coupon, error) {
			require.Equal(t, "MARCH10", code)
			return &model.Coupon{ID: 5, Code: "MARCH10", Type: model.CouponPercent, Value: 10, IsActive: true}, nil
		},
		incrementFn: func(_ context.Context, tx *sql.Tx, id int64) error {
			require.NotNil(t, tx)
			require.Equal(t, int64(5), id)
			usageBumps++
			return nil
		},
	}
	s := New(dbtest.Open(tally), m, cars, coupons, nil)

	req := validReq()
	req.AddonCodes = []string{"insurance"}
	req.CouponCode = "MARCH10"
	b, err := s.Create(context.Background(), 3, req)
	require.NoError(t, err)

	// 500000/day for 3 days plus a 100000/day addon, minus 10 percent.
	require.Equal(t, int64(3), b.Days)
	require.Equal(t, int64(1500000), b.BasePrice)
	require.Equal(t, int64(300000), b.ExtrasTotal)
	require.Equal(t, int64(180000), b.Discount)
	require.Equal(t, int64(1620000), b.TotalPrice)
	require.Equal(t, model.BookingPending, b.Status)

	require.Same(t, b, inserted)
	require.Len(t, optionRows, 1)
	require.Equal(t, int64(42), optionRows[0].BookingID)
	require.Equal(t, int64(300000), optionRows[0].Total)
	require.Equal(t, 1, usageBumps)
	require.Equal(t, 1, tally.Commits)
	require.Equal(t, 0, tally.Rollbacks)
}

func TestCreate_DuplicateAddonCodesChargedOnce(t *testing.T) {
	tally := &dbtest.Tally{}
	m := &repoMock{
		countOverlappingFn: func(_ context.Context, _ *sql.Tx, _ int64, _, _ time.Time) (int64, error) {
			return 0, nil
		},
		addonsFn: func(_ context.Context, codes []string) ([]model.Addon, error) {
			// The repeated code must arrive collapsed to one lookup.
			require.Equal(t, []string{"insurance"}, codes)
			return []model.Addon{{Code: "insurance", PricePerDay: 100000, Active: true}}, nil
		},
	}
	cars := &carRepoMock{
		lockFn: func(_ context.Context, _ *sql.Tx, _ int64) (*model.Car, error) {
			return availableCar(), nil
		},
	}
	s := New(dbtest.Open(tally), m, cars, &couponRepoMock{}, nil)

	req := validReq()
	req.AddonCodes = []string{"insurance", "insurance"}
	b, err := s.Create(context.Background(), 1, req)
	require.NoError(t, err)
	require.Equal(t, int64(300000), b.ExtrasTotal)
}
