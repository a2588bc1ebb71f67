package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	JWTSecret   string

	// Bulk-accept batch size for privacy toggles
	BulkAcceptBatchSize int

	// Background reconcile sweep, 0 disables it
	ReconcileIntervalMinutes int
	ReconcileSweepBatchSize  int

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	EmailEnabled bool
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))
	batchSize, _ := strconv.Atoi(getEnv("BULK_ACCEPT_BATCH_SIZE", "200"))
	reconcileInterval, _ := strconv.Atoi(getEnv("RECONCILE_INTERVAL_MINUTES", "60"))
	reconcileBatch, _ := strconv.Atoi(getEnv("RECONCILE_SWEEP_BATCH_SIZE", "500"))
	rlPerMinute, _ := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	rlBurst, _ := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "30"))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/circleup?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),

		BulkAcceptBatchSize: batchSize,

		ReconcileIntervalMinutes: reconcileInterval,
		ReconcileSweepBatchSize:  reconcileBatch,

		RateLimitPerMinute: rlPerMinute,
		RateLimitBurst:     rlBurst,

		// Email settings
		SMTPHost:     getEnv("SMTP_HOST", "sandbox.smtp.mailtrap.io"),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@circleup.app"),
		FromName:     getEnv("FROM_NAME", "CircleUp"),
		EmailEnabled: getEnv("EMAIL_ENABLED", "false") == "true",
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
