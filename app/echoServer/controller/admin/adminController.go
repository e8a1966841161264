// app/echoServer/controller/admin/adminController.go
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"carrental/app/echoServer/jwtx"
	cleanupsvc "carrental/service/cleanup"

	"github.com/labstack/echo/v4"
)

type CarStats interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type BookingStats interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type CouponStats interface {
	CountActive(ctx context.Context) (int64, error)
}

type RevenueStats interface {
	SettledRevenue(ctx context.Context) (int64, error)
}

type Controller struct {
	Cleanup  cleanupsvc.Service
	Cars     CarStats
	Bookings BookingStats
	Coupons  CouponStats
	Payments RevenueStats
	Log      *slog.Logger
}

// Dashboard
// @Summary      Admin dashboard overview
// @Description  Sweeps finished bookings and stale coupons, then returns fleet and revenue totals
// @Tags         admin
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Router       /v1/admin/dashboard [get]
func (ct *Controller) Dashboard(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	ctx := c.Request().Context()

	// The sweep runs before the totals so the numbers reflect reality. A
	// failed sweep still renders the dashboard.
	sweep, err := ct.Cleanup.Run(ctx)
	if err != nil {
		ct.Log.Error("cleanup sweep failed", "err", err)
	}

	carsByStatus, err := ct.Cars.CountByStatus(ctx)
	if err != nil {
		ct.Log.Error("car stats failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	byStatus, err := ct.Bookings.CountByStatus(ctx)
	if err != nil {
		ct.Log.Error("booking stats failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	activeCoupons, err := ct.Coupons.CountActive(ctx)
	if err != nil {
		ct.Log.Error("coupon stats failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	revenue, err := ct.Payments.SettledRevenue(ctx)
	if err != nil {
		ct.Log.Error("revenue stats failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"cars_by_status":     carsByStatus,
		"bookings_by_status": byStatus,
		"active_coupons":     activeCoupons,
		"settled_revenue":    revenue,
		"cleanup":            sweep,
	})
}
