// app/echoServer/controller/booking/bookingController.go
package booking

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"carrental/app/echoServer/jwtx"
	"carrental/app/echoServer/validation"
	"carrental/model"
	bookingsvc "carrental/service/booking"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc bookingsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Create booking
// @Summary      Create booking
// @Description  Book a car for a date range; prices, addons and coupon are recomputed server-side
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        payload  body  model.CreateBookingReq  true  "Booking payload"
// @Success      201  {object}  model.Booking
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any "car not found"
// @Failure      409  {object}  map[string]any "dates conflict with an existing booking"
// @Failure      422  {object}  map[string]any "unknown addon or invalid coupon"
// @Router       /v1/bookings [post]
func (ct *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req model.CreateBookingReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}

	b, err := ct.Svc.Create(c.Request().Context(), uid, req)
	if err != nil {
		switch bookingsvc.Code(err) {
		case bookingsvc.ErrBadInput:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case bookingsvc.ErrCarNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "car not found")
		case bookingsvc.ErrCarUnavailable:
			return echo.NewHTTPError(http.StatusConflict, "car unavailable")
		case bookingsvc.ErrDateConflict:
			return echo.NewHTTPError(http.StatusConflict, "dates conflict with an existing booking")
		case bookingsvc.ErrUnknownAddon:
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown addon code")
		case bookingsvc.ErrCouponInvalid:
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "coupon cannot be applied")
		default:
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			ct.Log.Error("booking create failed", "err", err, "req_id", rid, "user_id", uid)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /v1/bookings/my
func (ct *Controller) My(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	rows, err := ct.Svc.MyBookings(c.Request().Context(), uid)
	if err != nil {
		ct.Log.Error("my bookings failed", "err", err, "user_id", uid)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/bookings/:id
func (ct *Controller) Detail(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	b, err := ct.Svc.Detail(c.Request().Context(), uid, jwtx.IsAdmin(c), id)
	if err != nil {
		switch bookingsvc.Code(err) {
		case bookingsvc.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		case bookingsvc.ErrNotOwner:
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		default:
			ct.Log.Error("booking detail failed", "err", err, "id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, b)
}

// POST /v1/bookings/:id/cancel
func (ct *Controller) Cancel(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := ct.Svc.Cancel(c.Request().Context(), uid, id); err != nil {
		switch bookingsvc.Code(err) {
		case bookingsvc.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		case bookingsvc.ErrNotOwner:
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		case bookingsvc.ErrNotPending:
			return echo.NewHTTPError(http.StatusConflict, "only pending bookings can be cancelled")
		default:
			ct.Log.Error("booking cancel failed", "err", err, "id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cancelled"})
}

// GET /v1/admin/bookings?status=
func (ct *Controller) ListAll(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	rows, err := ct.Svc.ListAll(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		ct.Log.Error("booking list failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/bookings/:id/confirm
func (ct *Controller) Confirm(c echo.Context) error {
	return ct.adminTransition(c, ct.Svc.Confirm, "confirmed",
		bookingsvc.ErrNotPending, "only pending bookings can be confirmed")
}

// POST /v1/admin/bookings/:id/complete
func (ct *Controller) Complete(c echo.Context) error {
	return ct.adminTransition(c, ct.Svc.Complete, "completed",
		bookingsvc.ErrNotConfirmed, "only confirmed bookings can be completed")
}

func (ct *Controller) adminTransition(c echo.Context, op func(ctx context.Context, id int64) error, msg string, conflictCode bookingsvc.ErrCode, conflictMsg string) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := op(c.Request().Context(), id); err != nil {
		switch bookingsvc.Code(err) {
		case bookingsvc.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		case conflictCode:
			return echo.NewHTTPError(http.StatusConflict, conflictMsg)
		default:
			ct.Log.Error("booking transition failed", "err", err, "id", id, "to", msg)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}
