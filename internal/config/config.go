package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	Secret        string
	DatabaseDSN   string
	HTTPPort      string
	StaffUsername string
	StaffPassword string
	SessionTTL    int
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "ruralbites.db"
	}

	username := os.Getenv("STAFF_USERNAME")
	if username == "" {
		username = "abx"
	}
	password := os.Getenv("STAFF_PASSWORD")
	if password == "" {
		password = "1234"
	}

	// Sessions expire after a day unless overridden.
	ttl := 24
	if raw := os.Getenv("SESSION_TTL_HOURS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Printf("invalid SESSION_TTL_HOURS value %q, defaulting to 24", raw)
		} else {
			ttl = parsed
		}
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	return Config{
		Secret:        secret,
		DatabaseDSN:   dsn,
		HTTPPort:      port,
		StaffUsername: username,
		StaffPassword: password,
		SessionTTL:    ttl,
	}
}
