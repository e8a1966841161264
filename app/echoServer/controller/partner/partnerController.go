// app/echoServer/controller/partner/partnerController.go
package partner

import (
	"log/slog"
	"net/http"
	"strconv"

	"carrental/app/echoServer/jwtx"
	"carrental/app/echoServer/validation"
	"carrental/model"
	partnersvc "carrental/service/partner"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc partnersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /v1/admin/partners?include_inactive=true
func (ct *Controller) List(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	includeInactive := c.QueryParam("include_inactive") == "true"
	rows, err := ct.Svc.List(c.Request().Context(), includeInactive)
	if err != nil {
		ct.Log.Error("partner list failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/admin/partners/:id
func (ct *Controller) Detail(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := ct.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if partnersvc.Code(err) == partnersvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "partner not found")
		}
		ct.Log.Error("partner detail failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

// POST /v1/admin/partners
func (ct *Controller) Create(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	var req model.PartnerReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}
	p, err := ct.Svc.Create(c.Request().Context(), req)
	if err != nil {
		ct.Log.Error("partner create failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, p)
}

// PUT /v1/admin/partners/:id
func (ct *Controller) Update(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req model.PartnerReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}
	p, err := ct.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		if partnersvc.Code(err) == partnersvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "partner not found")
		}
		ct.Log.Error("partner update failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

// DELETE /v1/admin/partners/:id (soft deactivation)
func (ct *Controller) Deactivate(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := ct.Svc.Deactivate(c.Request().Context(), id); err != nil {
		if partnersvc.Code(err) == partnersvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "partner not found")
		}
		ct.Log.Error("partner deactivate failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deactivated"})
}
