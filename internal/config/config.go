package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultHTTPAddr   = ":8080"
	defaultGRPCAddr   = ":9090"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultBcryptCost = 12
)

// Config holds process-wide settings. It is loaded once at startup and
// treated as immutable afterwards; components receive it by injection.
type Config struct {
	HTTPAddr string
	GRPCAddr string
	PGDSN    string

	AuthSecret string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Load reads configuration from SAUDA_* environment variables.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:   envOr("SAUDA_HTTP_ADDR", defaultHTTPAddr),
		GRPCAddr:   envOr("SAUDA_GRPC_ADDR", defaultGRPCAddr),
		PGDSN:      strings.TrimSpace(os.Getenv("SAUDA_PG_DSN")),
		AuthSecret: strings.TrimSpace(os.Getenv("SAUDA_AUTH_SECRET")),
		AccessTTL:  defaultAccessTTL,
		RefreshTTL: defaultRefreshTTL,
		BcryptCost: defaultBcryptCost,
	}

	if cfg.AuthSecret == "" {
		return Config{}, errors.New("config: SAUDA_AUTH_SECRET is required")
	}

	var err error
	if cfg.AccessTTL, err = envDuration("SAUDA_ACCESS_TTL", cfg.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = envDuration("SAUDA_REFRESH_TTL", cfg.RefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = envInt("SAUDA_BCRYPT_COST", cfg.BcryptCost); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("config: bcrypt cost %d out of range", cfg.BcryptCost)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return Config{}, errors.New("config: token TTLs must be positive")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
