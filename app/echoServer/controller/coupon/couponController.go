// app/echoServer/controller/coupon/couponController.go
package coupon

import (
	"log/slog"
	"net/http"
	"strconv"

	"carrental/app/echoServer/jwtx"
	"carrental/app/echoServer/validation"
	"carrental/model"
	couponsvc "carrental/service/coupon"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc couponsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Validate coupon
// @Summary      Validate a coupon against an order
// @Description  Computes the discount for a code; the order total is recomputed server-side when car and dates are given
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        payload  body  model.ValidateCouponReq  true  "Validation payload"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any "unknown code"
// @Failure      422  {object}  map[string]any "coupon cannot be applied"
// @Router       /v1/coupons/validate [post]
func (ct *Controller) Validate(c echo.Context) error {
	var req model.ValidateCouponReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}

	res, err := ct.Svc.Validate(c.Request().Context(), req)
	if err != nil {
		switch couponsvc.Code(err) {
		case couponsvc.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "unknown coupon code")
		case couponsvc.ErrInvalid:
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		case couponsvc.ErrBadInput:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			ct.Log.Error("coupon validate failed", "err", err, "code", req.Code)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, res)
}

// GET /v1/admin/coupons
func (ct *Controller) List(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	rows, err := ct.Svc.List(c.Request().Context())
	if err != nil {
		ct.Log.Error("coupon list failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/coupons
func (ct *Controller) Create(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	var req model.CreateCouponReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}

	coupon, err := ct.Svc.Create(c.Request().Context(), req)
	if err != nil {
		switch couponsvc.Code(err) {
		case couponsvc.ErrCodeTaken:
			return echo.NewHTTPError(http.StatusConflict, "coupon code already exists")
		case couponsvc.ErrBadInput:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			ct.Log.Error("coupon create failed", "err", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusCreated, coupon)
}

// PUT /v1/admin/coupons/:id
func (ct *Controller) Update(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req model.CreateCouponReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}

	coupon, err := ct.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		switch couponsvc.Code(err) {
		case couponsvc.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
		case couponsvc.ErrCodeTaken:
			return echo.NewHTTPError(http.StatusConflict, "coupon code already exists")
		case couponsvc.ErrBadInput:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			ct.Log.Error("coupon update failed", "err", err, "id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, coupon)
}

// DELETE /v1/admin/coupons/:id
func (ct *Controller) Delete(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := ct.Svc.Delete(c.Request().Context(), id); err != nil {
		if couponsvc.Code(err) == couponsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
		}
		ct.Log.Error("coupon delete failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}
