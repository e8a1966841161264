// app/echoServer/controller/location/locationController.go
package location

import (
	"log/slog"
	"net/http"
	"strconv"

	"carrental/app/echoServer/jwtx"
	"carrental/app/echoServer/validation"
	"carrental/model"
	locationsvc "carrental/service/location"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc locationsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /v1/locations
func (ct *Controller) List(c echo.Context) error {
	rows, err := ct.Svc.List(c.Request().Context())
	if err != nil {
		ct.Log.Error("location list failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/locations/:id
func (ct *Controller) Detail(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := ct.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if locationsvc.Code(err) == locationsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "location not found")
		}
		ct.Log.Error("location detail failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, l)
}

// POST /v1/admin/locations
func (ct *Controller) Create(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	var req model.LocationReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}
	l, err := ct.Svc.Create(c.Request().Context(), req)
	if err != nil {
		ct.Log.Error("location create failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, l)
}

// PUT /v1/admin/locations/:id
func (ct *Controller) Update(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req model.LocationReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}
	l, err := ct.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		if locationsvc.Code(err) == locationsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "location not found")
		}
		ct.Log.Error("location update failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, l)
}

// DELETE /v1/admin/locations/:id
func (ct *Controller) Delete(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := ct.Svc.Delete(c.Request().Context(), id); err != nil {
		switch locationsvc.Code(err) {
		case locationsvc.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "location not found")
		case locationsvc.ErrInUse:
			return echo.NewHTTPError(http.StatusConflict, "location is referenced by cars or bookings")
		default:
			ct.Log.Error("location delete failed", "err", err, "id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.NoContent(http.StatusNoContent)
}
