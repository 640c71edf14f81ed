package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("MANGAKEEP_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("MANGAKEEP_JWT_ISSUER")
	if issuer == "" {
		issuer = "mangakeep"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("MANGAKEEP_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			duration = time.Duration(hours) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}

// ImageDir is where downloaded and uploaded cover files live.
func ImageDir() string {
	if p := os.Getenv("MANGAKEEP_IMAGE_DIR"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".mangakeep", "images")
}

func ListenAddr() string {
	if a := os.Getenv("MANGAKEEP_ADDR"); a != "" {
		return a
	}
	return ":8080"
}
