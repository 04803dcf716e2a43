// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, slot hold and booking rules, payment gateway and webhook
// settings, messaging/notification endpoints, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// HoldConfig controls advisory slot holds.
type HoldConfig struct {
	TTL           time.Duration // HOLD_TTL
	MaxLifetime   time.Duration // HOLD_MAX_LIFETIME; 0 means same-session renewals are unlimited
	SweepSchedule string        // HOLD_SWEEP_SCHEDULE, robfig/cron spec
}

// BookingConfig controls the booking coordinator.
type BookingConfig struct {
	RefMaxAttempts     int           // BOOKING_REF_MAX_ATTEMPTS
	DefaultSlot        time.Duration // BOOKING_SLOT_DURATION
	DefaultPhoneRegion string        // DEFAULT_PHONE_REGION (ISO 3166-1 alpha-2)
	SlotLockTTL        time.Duration // SLOT_LOCK_TTL (only with REDIS_URL)
}

// PaymentConfig configures the payment gateway client and the webhook guard.
type PaymentConfig struct {
	APIBaseURL         string        // PAYMENT_API_BASE_URL
	AccessToken        string        // PAYMENT_ACCESS_TOKEN
	Timeout            time.Duration // PAYMENT_TIMEOUT
	WebhookSecret      string        // WEBHOOK_SECRET; empty disables signature checks
	SignatureTolerance time.Duration // WEBHOOK_SIGNATURE_TOLERANCE; 0 disables the timestamp window
}

// SMTPConfig configures the email notifier. Empty Host disables email.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // e.g. 15s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DatabaseURL  string // postgres DSN; when empty DBPath (sqlite) is used
	DBPath       string // SQLite path
	RedisURL     string // optional, enables the slot-key lock
	AMQPURL      string // optional, enables queued notifications and realtime events
	AMQPExchange string // topic exchange for events and notification jobs

	// Admin
	AdminToken string // ADMIN_TOKEN; bearer token for admin routes, empty leaves them unmounted

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	Hold    HoldConfig
	Booking BookingConfig
	Payment PaymentConfig
	SMTP    SMTPConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables (after merging an
// optional .env file, which never overrides the real environment), applies
// defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load(getenv("ENV_FILE", ".env"))

	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DatabaseURL:  getenv("DATABASE_URL", ""),
		DBPath:       getenv("DB_PATH", "booking.db"),
		RedisURL:     getenv("REDIS_URL", ""),
		AMQPURL:      getenv("AMQP_URL", ""),
		AMQPExchange: getenv("AMQP_EXCHANGE", "booking.events"),
		AdminToken:   getenv("ADMIN_TOKEN", ""),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Hold: HoldConfig{
			TTL:           getdur("HOLD_TTL", 5*time.Minute),
			MaxLifetime:   getdur("HOLD_MAX_LIFETIME", 0),
			SweepSchedule: getenv("HOLD_SWEEP_SCHEDULE", "@every 1m"),
		},
		Booking: BookingConfig{
			RefMaxAttempts:     getint("BOOKING_REF_MAX_ATTEMPTS", 10),
			DefaultSlot:        getdur("BOOKING_SLOT_DURATION", 30*time.Minute),
			DefaultPhoneRegion: strings.ToUpper(getenv("DEFAULT_PHONE_REGION", "AR")),
			SlotLockTTL:        getdur("SLOT_LOCK_TTL", 10*time.Second),
		},
		Payment: PaymentConfig{
			APIBaseURL:         strings.TrimRight(getenv("PAYMENT_API_BASE_URL", "https://api.mercadopago.com"), "/"),
			AccessToken:        getenv("PAYMENT_ACCESS_TOKEN", ""),
			Timeout:            getdur("PAYMENT_TIMEOUT", 10*time.Second),
			WebhookSecret:      getenv("WEBHOOK_SECRET", ""),
			SignatureTolerance: getdur("WEBHOOK_SIGNATURE_TOLERANCE", 5*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", ""),
			Port:     getint("SMTP_PORT", 587),
			User:     getenv("SMTP_USER", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "no-reply@localhost"),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-booking-engine"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" && strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("one of DATABASE_URL or DB_PATH must be set")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Hold.TTL <= 0 {
		return cfg, errors.New("HOLD_TTL must be > 0")
	}
	if cfg.Hold.MaxLifetime < 0 {
		return cfg, errors.New("HOLD_MAX_LIFETIME must be >= 0")
	}
	if cfg.Hold.MaxLifetime > 0 && cfg.Hold.MaxLifetime < cfg.Hold.TTL {
		return cfg, errors.New("HOLD_MAX_LIFETIME must be 0 or >= HOLD_TTL")
	}
	if strings.TrimSpace(cfg.Hold.SweepSchedule) == "" {
		return cfg, errors.New("HOLD_SWEEP_SCHEDULE must not be empty")
	}
	if cfg.Booking.RefMaxAttempts < 1 {
		return cfg, errors.New("BOOKING_REF_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Booking.DefaultSlot < time.Minute {
		return cfg, errors.New("BOOKING_SLOT_DURATION must be >= 1m")
	}
	if len(cfg.Booking.DefaultPhoneRegion) != 2 {
		return cfg, errors.New("DEFAULT_PHONE_REGION must be a two-letter region code")
	}
	if cfg.Booking.SlotLockTTL <= 0 {
		return cfg, errors.New("SLOT_LOCK_TTL must be > 0")
	}
	if cfg.Payment.Timeout <= 0 {
		return cfg, errors.New("PAYMENT_TIMEOUT must be > 0")
	}
	if cfg.Payment.SignatureTolerance < 0 {
		return cfg, errors.New("WEBHOOK_SIGNATURE_TOLERANCE must be >= 0")
	}
	if cfg.SMTP.Host != "" && (cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535) {
		return cfg, errors.New("SMTP_PORT must be a valid port")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
