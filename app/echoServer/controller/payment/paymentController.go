// app/echoServer/controller/payment/paymentController.go
package payment

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"carrental/app/echoServer/jwtx"
	paymentsvc "carrental/service/payment"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc paymentsvc.Service
	Log *slog.Logger
}

// Checkout
// @Summary      Start online payment for a booking
// @Description  Creates a Midtrans Snap transaction and returns the token and redirect URL
// @Tags         payments
// @Produce      json
// @Param        id  path  int  true  "booking id"
// @Success      201  {object}  paymentsvc.CheckoutResult
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any "booking not pending or not an online booking"
// @Failure      502  {object}  map[string]any "gateway rejected the transaction"
// @Router       /v1/bookings/{id}/pay [post]
func (ct *Controller) Checkout(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	res, err := ct.Svc.Checkout(c.Request().Context(), uid, id)
	if err != nil {
		switch paymentsvc.Code(err) {
		case paymentsvc.ErrBookingNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		case paymentsvc.ErrNotOwner:
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		case paymentsvc.ErrNotPending:
			return echo.NewHTTPError(http.StatusConflict, "booking is not pending")
		case paymentsvc.ErrWrongMethod:
			return echo.NewHTTPError(http.StatusConflict, "booking is not an online payment booking")
		case paymentsvc.ErrGateway:
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			ct.Log.Error("gateway checkout failed", "err", err, "req_id", rid, "booking_id", id)
			return echo.NewHTTPError(http.StatusBadGateway, "payment gateway error")
		default:
			ct.Log.Error("checkout failed", "err", err, "booking_id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusCreated, res)
}

// Webhook
// @Summary      Midtrans payment notification
// @Description  Verifies the notification signature, records the status change and confirms the booking on settlement
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any "signature mismatch"
// @Failure      404  {object}  map[string]any "unknown order id"
// @Router       /v1/payments/midtrans/notification [post]
func (ct *Controller) Webhook(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	if err := ct.Svc.HandleNotification(c.Request().Context(), raw); err != nil {
		switch paymentsvc.Code(err) {
		case paymentsvc.ErrBadSignature:
			ct.Log.Warn("webhook signature mismatch", "ip", c.RealIP())
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
		case paymentsvc.ErrUnknownOrder:
			return echo.NewHTTPError(http.StatusNotFound, "unknown order")
		default:
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			ct.Log.Error("webhook handling failed", "err", err, "req_id", rid)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	// Midtrans retries anything that is not a 200.
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

// GET /v1/bookings/:id/payments
func (ct *Controller) ListByBooking(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rows, err := ct.Svc.ListByBooking(c.Request().Context(), uid, jwtx.IsAdmin(c), id)
	if err != nil {
		switch paymentsvc.Code(err) {
		case paymentsvc.ErrBookingNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		case paymentsvc.ErrNotOwner:
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		default:
			ct.Log.Error("payment list failed", "err", err, "booking_id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
