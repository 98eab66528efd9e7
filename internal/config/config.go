// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required variables are enforced by must();
// missing values halt startup with a fatal log message.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	JWTSecret       string        // secret used to sign scanner capability tokens
	ScannerTokenTTL time.Duration // capability token time-to-live
	BcryptCost      int           // bcrypt cost for scanner secret hashing
	PublicBaseURL   string        // public URL prefix embedded in ticket QR payloads
	WebhookSecret   string        // shared secret authenticating payment gateway webhooks
	AmqpURL         string        // RabbitMQ URL for the audit trail (optional)
	StoreTimeout    time.Duration // bound on storage calls in the validation hot path
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		ScannerTokenTTL: time.Duration(mustInt("SCANNER_TOKEN_TTL_MIN")) * time.Minute,
		BcryptCost:      mustInt("BCRYPT_COST"),
		PublicBaseURL:   must("PUBLIC_BASE_URL"),
		WebhookSecret:   must("PAYMENT_WEBHOOK_SECRET"),
		AmqpURL:         os.Getenv("RABBITMQ_URL"),
		StoreTimeout:    envDur("STORE_TIMEOUT", 3*time.Second),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
