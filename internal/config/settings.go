package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds the gateway configuration.
type Settings struct {
	Port            int
	JWTSecret       string
	JWTRefresh      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
	CookieSecure    bool
	CORSOrigin      string
	Issuer          string
}

// LoadSettings reads gateway settings from the environment. The two JWT
// secrets are required and must differ; everything else has defaults.
func LoadSettings() (Settings, error) {
	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		return Settings{}, fmt.Errorf("JWT_SECRET is required")
	}
	jwtRefresh := strings.TrimSpace(os.Getenv("JWT_REFRESH_SECRET"))
	if jwtRefresh == "" {
		return Settings{}, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	if jwtSecret == jwtRefresh {
		return Settings{}, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	port := 3001
	if val := os.Getenv("PORT"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid PORT: %w", err)
		}
		port = parsed
	}

	cost := 0
	if val := os.Getenv("BCRYPT_COST"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			cost = parsed
		}
	}

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*"
	}

	issuer := strings.TrimRight(os.Getenv("ISSUER_URL"), "/")
	if issuer == "" {
		issuer = fmt.Sprintf("http://localhost:%d", port)
	}

	return Settings{
		Port:            port,
		JWTSecret:       jwtSecret,
		JWTRefresh:      jwtRefresh,
		AccessTokenTTL:  parseDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: parseDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:      cost,
		CookieSecure:    strings.EqualFold(os.Getenv("APP_ENV"), "production"),
		CORSOrigin:      corsOrigin,
		Issuer:          issuer,
	}, nil
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if dur, err := time.ParseDuration(val); err == nil {
			return dur
		}
	}
	return fallback
}
