package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewCheckoutConfigHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	Port        string
	NodeID      int

	OTLPEndpoint string

	DBType            string
	DBURL             string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	AppBaseDomain     string
	FrisbiiAPIBase    string
	FrisbiiTimeout    time.Duration
	AuthSessionCookie string

	WebhookRequireSecret bool

	RateLimit RateLimitConfig
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CheckoutRate  float64
	CheckoutBurst int
	WebhookRate   float64
	WebhookBurst  int
	LockTTL       time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:              getenv("APP_SERVICE", "limaskap"),
		AppVersion:           getenv("APP_VERSION", "0.1.0"),
		Environment:          getenv("ENVIRONMENT", "development"),
		Port:                 getenv("PORT", "9999"),
		NodeID:               getenvInt("SNOWFLAKE_NODE_ID", 1),
		OTLPEndpoint:         getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:               strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBURL:                strings.TrimSpace(getenv("DATABASE_URL", "")),
		DBHost:               getenv("DATABASE_HOST", "localhost"),
		DBPort:               getenv("DATABASE_PORT", "5432"),
		DBName:               getenv("DATABASE_NAME", "limaskap"),
		DBUser:               getenv("DATABASE_USER", "postgres"),
		DBPassword:           getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:            getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:        getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:        getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime:    getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		AppBaseDomain:        strings.Trim(getenv("APP_BASE_DOMAIN", "limaskap.fo"), "./ "),
		FrisbiiAPIBase:       strings.TrimRight(getenv("FRISBII_API_BASE", "https://checkout-api.frisbii.com"), "/"),
		FrisbiiTimeout:       getenvDuration("FRISBII_TIMEOUT", 10*time.Second),
		AuthSessionCookie:    getenv("AUTH_SESSION_COOKIE", "better-auth.session_token"),
		WebhookRequireSecret: getenvBool("WEBHOOK_REQUIRE_SECRET", false),
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			CheckoutRate:  getenvFloat("RATE_LIMIT_CHECKOUT_RATE", 0.2),
			CheckoutBurst: getenvInt("RATE_LIMIT_CHECKOUT_BURST", 5),
			WebhookRate:   getenvFloat("RATE_LIMIT_WEBHOOK_RATE", 20),
			WebhookBurst:  getenvInt("RATE_LIMIT_WEBHOOK_BURST", 100),
			LockTTL:       getenvDuration("CHECKOUT_LOCK_TTL", 30*time.Second),
		},
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// TenantBaseURL returns the public origin for an organization's subdomain.
func (c Config) TenantBaseURL(subdomain string) string {
	domain := c.AppBaseDomain
	if domain == "" {
		domain = "limaskap.fo"
	}
	return "https://" + strings.TrimSpace(subdomain) + "." + domain
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
