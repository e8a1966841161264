package echoServer

import (
	"carrental/app/echoServer/controller/admin"
	"carrental/app/echoServer/controller/auth"
	"carrental/app/echoServer/controller/booking"
	"carrental/app/echoServer/controller/car"
	"carrental/app/echoServer/controller/coupon"
	"carrental/app/echoServer/controller/location"
	"carrental/app/echoServer/controller/partner"
	"carrental/app/echoServer/controller/payment"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type C struct {
	Auth      *auth.Controller
	Car       *car.Controller
	Booking   *booking.Controller
	Coupon    *coupon.Controller
	Payment   *payment.Controller
	Partner   *partner.Controller
	Location  *location.Controller
	Admin     *admin.Controller
	JWTSecret string
	StaticDir string
}

func Register(e *echo.Echo, c C) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if c.StaticDir != "" {
		e.Static("/storage", c.StaticDir)
	}

	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	pub.GET("/cars", c.Car.List)
	pub.GET("/cars/:id", c.Car.Detail)

	pub.GET("/locations", c.Location.List)
	pub.GET("/locations/:id", c.Location.Detail)

	pub.POST("/coupons/validate", c.Coupon.Validate)

	// Gateway webhook authenticates with its signature, not a JWT.
	pub.POST("/payments/midtrans/notification", c.Payment.Webhook)

	// Authenticated
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))

	authed.GET("/users/me", c.Auth.Me)
	authed.POST("/users/me/avatar", c.Auth.UploadAvatar)

	authed.POST("/bookings", c.Booking.Create)
	authed.GET("/bookings/my", c.Booking.My)
	authed.GET("/bookings/:id", c.Booking.Detail)
	authed.POST("/bookings/:id/cancel", c.Booking.Cancel)

	authed.POST("/bookings/:id/pay", c.Payment.Checkout)
	authed.GET("/bookings/:id/payments", c.Payment.ListByBooking)

	// Admin. Controllers check the role claim themselves.
	adm := authed.Group("/admin")
	adm.GET("/dashboard", c.Admin.Dashboard)

	adm.POST("/cars", c.Car.Create)
	adm.PATCH("/cars/:id", c.Car.Update)
	adm.DELETE("/cars/:id", c.Car.Delete)
	adm.PUT("/cars/:id/maintenance", c.Car.SetMaintenance)
	adm.POST("/cars/:id/images", c.Car.UploadImage)
	adm.PUT("/cars/:id/images/:imageID/primary", c.Car.SetPrimaryImage)

	adm.GET("/bookings", c.Booking.ListAll)
	adm.POST("/bookings/:id/confirm", c.Booking.Confirm)
	adm.POST("/bookings/:id/complete", c.Booking.Complete)

	adm.GET("/coupons", c.Coupon.List)
	adm.POST("/coupons", c.Coupon.Create)
	adm.PUT("/coupons/:id", c.Coupon.Update)
	adm.DELETE("/coupons/:id", c.Coupon.Delete)

	adm.GET("/partners", c.Partner.List)
	adm.GET("/partners/:id", c.Partner.Detail)
	adm.POST("/partners", c.Partner.Create)
	adm.PUT("/partners/:id", c.Partner.Update)
	adm.DELETE("/partners/:id", c.Partner.Deactivate)

	adm.POST("/locations", c.Location.Create)
	adm.PUT("/locations/:id", c.Location.Update)
	adm.DELETE("/locations/:id", c.Location.Delete)
}
