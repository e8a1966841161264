package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	Env         string `env:"APP_ENV" default:"dev"`
	BaseURL     string `env:"APP_BASE_URL" default:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Midtrans Snap. Production=false targets the sandbox endpoint.
	MidtransServerKey  string `env:"MIDTRANS_SERVER_KEY,required"`
	MidtransProduction bool   `env:"MIDTRANS_PRODUCTION" default:"false"`

	UploadDir string `env:"UPLOAD_DIR" default:"./storage"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" default:"20"`
}
