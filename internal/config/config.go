// Package config reads process configuration from environment variables.
//
// main calls godotenv.Load() first so a local .env file works in
// development; in production the variables come from the environment
// directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port   int
	DBPath string
	Env    string // "development" or "production"

	// JWTSecret signs session tokens. Mandatory: the server refuses to
	// start without it rather than falling back to a known default.
	JWTSecret string

	// Blob storage. When MinioEndpoint is empty the local-disk store is
	// used with UploadDir as the root and /uploads as the URL prefix.
	UploadDir      string
	PublicBaseURL  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AllowedOrigins []string

	// ImageAPIKey is the key for the third-party generative-image API used
	// by the photo editor front end. Only plumbing: its absence disables
	// the feature, it is not a startup error.
	ImageAPIKey string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           8080,
		DBPath:         getEnv("DB_PATH", "data/travelog.db"),
		Env:            strings.ToLower(getEnv("ENV", "development")),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		UploadDir:      getEnv("UPLOAD_DIR", "data/uploads"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", ""),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "photos"),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		ImageAPIKey:    os.Getenv("IMAGE_API_KEY"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}

	if cfg.MinioEndpoint != "" && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "") {
		return nil, fmt.Errorf("config: MINIO_ENDPOINT set but MINIO_ACCESS_KEY/MINIO_SECRET_KEY missing")
	}

	return cfg, nil
}

// IsProduction controls the Secure flag on the auth cookie.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
