package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	Log       LogConfig
	Schedule  ScheduleConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	AMQP      AMQPConfig

	PaymentWebhookSecret string
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level    string // debug, info, warn, error
	Format   string // json or console
	Output   string // stdout, stderr or file
	FilePath string
}

// ScheduleConfig holds the scheduling calendar settings.
type ScheduleConfig struct {
	Location *time.Location
	SlotStep time.Duration
}

// RedisConfig holds the shared store used by the rate limiter.
// An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// AMQPConfig holds the broker settings for payment events and notifications.
// An empty URL disables both the consumer and the publisher.
type AMQPConfig struct {
	URL            string
	Exchange       string
	Queue          string
	NotifyExchange string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}

	// Bcrypt cost for password hashing (default: 12)
	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	cfg.Log = LogConfig{
		Level:    getEnv("LOG_LEVEL", "info"),
		Format:   getEnv("LOG_FORMAT", "json"),
		Output:   getEnv("LOG_OUTPUT", "stdout"),
		FilePath: getEnv("LOG_FILE", ""),
	}
	if !cfg.IsProduction && os.Getenv("LOG_FORMAT") == "" {
		cfg.Log.Format = "console"
	}

	// Calendar timezone; slot times and "today" are computed in this location.
	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Schedule.Location = loc

	stepMinutes, err := getEnvAsInt("SLOT_STEP_MINUTES", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid SLOT_STEP_MINUTES: %w", err)
	}
	if stepMinutes <= 0 {
		return nil, fmt.Errorf("SLOT_STEP_MINUTES must be positive, got %d", stepMinutes)
	}
	cfg.Schedule.SlotStep = time.Duration(stepMinutes) * time.Minute

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB, err = getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.RateLimit.Requests, err = getEnvAsInt("RATE_LIMIT_REQUESTS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}
	cfg.RateLimit.Window, err = getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	cfg.AMQP = AMQPConfig{
		URL:            getEnv("AMQP_URL", ""),
		Exchange:       getEnv("AMQP_EXCHANGE", "payments"),
		Queue:          getEnv("AMQP_QUEUE", "scheduling.payments"),
		NotifyExchange: getEnv("AMQP_NOTIFY_EXCHANGE", "scheduling"),
	}

	// Webhook calls are rejected when no secret is configured.
	cfg.PaymentWebhookSecret = getEnv("PAYMENT_WEBHOOK_SECRET", "")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration retrieves an environment variable as a time.Duration (e.g. "15m").
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}
