package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() App {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := App{
		Port:               getenv("APP_PORT", "8080"),
		Env:                getenv("APP_ENV", "dev"),
		BaseURL:            getenv("APP_BASE_URL", "http://localhost:8080"),
		DatabaseURL:        must("DATABASE_URL"),
		JWTSecret:          getenv("JWT_SECRET", "local_dev_secret"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		MidtransServerKey:  must("MIDTRANS_SERVER_KEY"),
		MidtransProduction: getbool("MIDTRANS_PRODUCTION", false),
		UploadDir:          getenv("UPLOAD_DIR", "./storage"),
		RateLimitRPS:       getfloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getint("RATE_LIMIT_BURST", 20),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
