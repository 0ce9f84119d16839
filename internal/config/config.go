// Package config collects process configuration from the environment. A
// .env file is honored in development; real deployments set the variables
// directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything the api binary needs to start.
type Config struct {
	Addr       string
	PGDSN      string
	AuthSecret string
	AuthIssuer string
	LoginTTL   time.Duration

	RateBurst     int
	RatePerSecond int
	MaxBodyBytes  int64
}

// Load reads configuration from the environment. The auth secret is the only
// hard requirement; everything else has a workable default.
func Load() (Config, error) {
	cfg := Config{
		Addr:          envOr("MESWORKS_ADDR", ":8080"),
		PGDSN:         os.Getenv("MESWORKS_PG_DSN"),
		AuthSecret:    os.Getenv("MESWORKS_AUTH_SECRET"),
		AuthIssuer:    envOr("MESWORKS_AUTH_ISSUER", "mesworks"),
		LoginTTL:      365 * 24 * time.Hour,
		RateBurst:     20,
		RatePerSecond: 10,
		MaxBodyBytes:  1 << 20,
	}
	if cfg.AuthSecret == "" {
		return Config{}, errors.New("MESWORKS_AUTH_SECRET is required")
	}
	if raw := os.Getenv("MESWORKS_LOGIN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("invalid MESWORKS_LOGIN_TTL %q", raw)
		}
		cfg.LoginTTL = ttl
	}
	var err error
	if cfg.RateBurst, err = envInt("MESWORKS_RATE_BURST", cfg.RateBurst); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSecond, err = envInt("MESWORKS_RATE_PER_SECOND", cfg.RatePerSecond); err != nil {
		return Config{}, err
	}
	if raw := os.Getenv("MESWORKS_MAX_BODY_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MESWORKS_MAX_BODY_BYTES %q", raw)
		}
		cfg.MaxBodyBytes = n
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}
