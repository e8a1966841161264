// Package main car rental API.
//
// @title           Car Rental API
// @version         1.0
// @description     Multi-partner car rental service (fleet, bookings, coupons, online payments).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"carrental/app/echoServer"
	adminctrl "carrental/app/echoServer/controller/admin"
	authctrl "carrental/app/echoServer/controller/auth"
	bookingctrl "carrental/app/echoServer/controller/booking"
	carctrl "carrental/app/echoServer/controller/car"
	couponctrl "carrental/app/echoServer/controller/coupon"
	locationctrl "carrental/app/echoServer/controller/location"
	partnerctrl "carrental/app/echoServer/controller/partner"
	paymentctrl "carrental/app/echoServer/controller/payment"
	"carrental/app/echoServer/validation"
	"carrental/config"
	authrepo "carrental/repository/auth"
	bookingrepo "carrental/repository/booking"
	"carrental/repository/cache"
	carrepo "carrental/repository/car"
	couponrepo "carrental/repository/coupon"
	locationrepo "carrental/repository/location"
	midtransrepo "carrental/repository/midtrans"
	partnerrepo "carrental/repository/partner"
	paymentrepo "carrental/repository/payment"
	authsvc "carrental/service/auth"
	bookingsvc "carrental/service/booking"
	carsvc "carrental/service/car"
	cleanupsvc "carrental/service/cleanup"
	couponsvc "carrental/service/coupon"
	locationsvc "carrental/service/location"
	partnersvc "carrental/service/partner"
	paymentsvc "carrental/service/payment"
	"carrental/util/database"
	"carrental/util/metrics"
	"carrental/util/storage"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	metrics.Register()

	// DB: *sql.DB over pgx
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis is optional; without it the car listing cache is a no-op.
	redisClient := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	if redisClient != nil {
		if err := cache.Ping(ctx, redisClient); err != nil {
			log.Warn("redis unreachable, continuing without cache", "err", err)
			redisClient = nil
		}
	}
	carCache := cache.NewCarCache(redisClient, 5*time.Minute)

	// repos
	ar := authrepo.New(db)
	cr := carrepo.New(db)
	br := bookingrepo.New(db)
	cpr := couponrepo.New(db)
	pr := paymentrepo.New(db)
	ptr := partnerrepo.New(db)
	lr := locationrepo.New(db)
	mt := midtransrepo.NewHTTP(cfg.MidtransServerKey, cfg.MidtransProduction)

	// services
	as := authsvc.New(ar, cfg.JWTSecret)
	cs := carsvc.New(db, cr, carCache)
	bs := bookingsvc.New(db, br, cr, cpr, carCache)
	cps := couponsvc.New(cpr, cr, br)
	ps := paymentsvc.New(db, pr, br, cr, ar, mt, carCache)
	cls := cleanupsvc.New(db, br, cr, cpr, carCache, log)
	pts := partnersvc.New(ptr)
	ls := locationsvc.New(lr)

	store := storage.New(cfg.UploadDir, cfg.BaseURL)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, Store: store, V: v, Log: log}
	carC := &carctrl.Controller{Svc: cs, Store: store, V: v, Log: log}
	bookingC := &bookingctrl.Controller{Svc: bs, V: v, Log: log}
	couponC := &couponctrl.Controller{Svc: cps, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: ps, Log: log}
	partnerC := &partnerctrl.Controller{Svc: pts, V: v, Log: log}
	locationC := &locationctrl.Controller{Svc: ls, V: v, Log: log}
	adminC := &adminctrl.Controller{Cleanup: cls, Cars: cr, Bookings: br, Coupons: cpr, Payments: pr, Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e, cfg.RateLimitRPS, cfg.RateLimitBurst)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		Car:       carC,
		Booking:   bookingC,
		Coupon:    couponC,
		Payment:   paymentC,
		Partner:   partnerC,
		Location:  locationC,
		Admin:     adminC,
		JWTSecret: cfg.JWTSecret,
		StaticDir: cfg.UploadDir,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)
	e.Logger.Fatal(e.Start(":" + port))
}
