// app/echoServer/controller/car/carController.go
package car

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"carrental/app/echoServer/jwtx"
	"carrental/app/echoServer/validation"
	"carrental/model"
	carsvc "carrental/service/car"
	"carrental/util/storage"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc   carsvc.Service
	Store *storage.Store
	V     *validator.Validate
	Log   *slog.Logger
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func parseDate(v string) (*time.Time, bool) {
	if v == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// List cars
// @Summary      List cars
// @Description  List the fleet, optionally filtered; pickup_date+return_date exclude cars with overlapping bookings
// @Tags         cars
// @Produce      json
// @Param        category      query  string  false  "category"
// @Param        transmission  query  string  false  "manual or automatic"
// @Param        location_id   query  int     false  "pickup location"
// @Param        min_price     query  int     false  "minimum daily price"
// @Param        max_price     query  int     false  "maximum daily price"
// @Param        pickup_date   query  string  false  "RFC3339 or YYYY-MM-DD"
// @Param        return_date   query  string  false  "RFC3339 or YYYY-MM-DD"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Router       /v1/cars [get]
func (ct *Controller) List(c echo.Context) error {
	var f model.CarFilter
	f.Category = c.QueryParam("category")
	f.Transmission = c.QueryParam("transmission")
	if v := c.QueryParam("location_id"); v != "" {
		f.LocationID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := c.QueryParam("min_price"); v != "" {
		f.MinPrice, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := c.QueryParam("max_price"); v != "" {
		f.MaxPrice, _ = strconv.ParseInt(v, 10, 64)
	}

	pickup, ok := parseDate(c.QueryParam("pickup_date"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pickup_date")
	}
	ret, ok := parseDate(c.QueryParam("return_date"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid return_date")
	}
	// Availability filtering needs both ends of the range.
	if (pickup == nil) != (ret == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "pickup_date and return_date go together")
	}
	if pickup != nil && !ret.After(*pickup) {
		return echo.NewHTTPError(http.StatusBadRequest, "return_date must be after pickup_date")
	}
	f.PickupDate, f.ReturnDate = pickup, ret

	cars, err := ct.Svc.List(c.Request().Context(), f)
	if err != nil {
		ct.Log.Error("car list failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cars})
}

// GET /v1/cars/:id
func (ct *Controller) Detail(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	car, err := ct.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if carsvc.Code(err) == carsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "car not found")
		}
		ct.Log.Error("car detail failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, car)
}

// Create car
// @Summary      Create car (admin)
// @Tags         cars
// @Accept       json
// @Produce      json
// @Param        payload  body  model.CreateCarReq  true  "Car payload"
// @Success      201  {object}  model.Car
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      409  {object}  map[string]any "license plate already registered"
// @Router       /v1/admin/cars [post]
func (ct *Controller) Create(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	var req model.CreateCarReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}

	car, err := ct.Svc.Create(c.Request().Context(), req)
	if err != nil {
		switch carsvc.Code(err) {
		case carsvc.ErrPlateTaken:
			return echo.NewHTTPError(http.StatusConflict, "license plate already registered")
		default:
			ct.Log.Error("car create failed", "err", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusCreated, car)
}

// PATCH /v1/admin/cars/:id
func (ct *Controller) Update(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req model.UpdateCarReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}

	car, err := ct.Svc.Update(c.Request().Context(), id, req)
	if err != nil {
		switch carsvc.Code(err) {
		case carsvc.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "car not found")
		case carsvc.ErrPlateTaken:
			return echo.NewHTTPError(http.StatusConflict, "license plate already registered")
		default:
			ct.Log.Error("car update failed", "err", err, "id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, car)
}

// PUT /v1/admin/cars/:id/maintenance
func (ct *Controller) SetMaintenance(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req model.SetMaintenanceReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "validation error", "errors": validation.Errors(err)})
	}

	if err := ct.Svc.SetMaintenance(c.Request().Context(), id, *req.On); err != nil {
		if carsvc.Code(err) == carsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "car not found")
		}
		ct.Log.Error("car maintenance toggle failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "maintenance flag updated"})
}

// DELETE /v1/admin/cars/:id
func (ct *Controller) Delete(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := ct.Svc.Delete(c.Request().Context(), id); err != nil {
		if carsvc.Code(err) == carsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "car not found")
		}
		ct.Log.Error("car delete failed", "err", err, "id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /v1/admin/cars/:id/images (multipart, field "image")
func (ct *Controller) UploadImage(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file required")
	}
	url, err := ct.Store.Save(fh, "cars")
	if err != nil {
		ct.Log.Warn("image save failed", "err", err, "car_id", id)
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported file")
	}
	img, err := ct.Svc.AddImage(c.Request().Context(), id, url)
	if err != nil {
		if carsvc.Code(err) == carsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "car not found")
		}
		ct.Log.Error("add image failed", "err", err, "car_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, img)
}

// PUT /v1/admin/cars/:id/images/:imageID/primary
func (ct *Controller) SetPrimaryImage(c echo.Context) error {
	if !jwtx.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	carID, ok := parseID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	imageID, ok := parseID(c, "imageID")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image id")
	}
	if err := ct.Svc.SetPrimaryImage(c.Request().Context(), carID, imageID); err != nil {
		if carsvc.Code(err) == carsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "image not found")
		}
		ct.Log.Error("set primary image failed", "err", err, "car_id", carID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "primary image updated"})
}
