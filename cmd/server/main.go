// Package main is the entry point for the travelog server. It loads
// configuration, picks a blob store, and hands everything to the server
// package; all real logic lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/szhou/travelog/internal/blob"
	"github.com/szhou/travelog/internal/config"
	"github.com/szhou/travelog/internal/server"
)

func main() {
	// A local .env is a development convenience; in production the
	// variables come from the environment and the file is absent.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("loading .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("creating database directory", "error", err)
		os.Exit(1)
	}

	store, err := newBlobStore(cfg, logger)
	if err != nil {
		logger.Error("setting up blob storage", "error", err)
		os.Exit(1)
	}

	// The front end's generative-image editor needs this key; the server
	// only passes it through, so its absence just disables that feature.
	if cfg.ImageAPIKey == "" {
		logger.Info("IMAGE_API_KEY not set, image editor integration disabled")
	}

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		logger.Error("creating server", "error", err)
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newBlobStore picks MinIO when an endpoint is configured, local disk
// otherwise.
func newBlobStore(cfg *config.Config, logger *slog.Logger) (blob.Store, error) {
	if cfg.MinioEndpoint != "" {
		logger.Info("using minio blob store",
			slog.String("endpoint", cfg.MinioEndpoint),
			slog.String("bucket", cfg.MinioBucket),
		)
		return blob.NewMinioStore(context.Background(), blob.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}

	// With a public base URL configured (reverse proxy, CDN) photo URLs
	// become absolute; otherwise they are site-relative paths.
	prefix := "/uploads"
	if cfg.PublicBaseURL != "" {
		prefix = strings.TrimSuffix(cfg.PublicBaseURL, "/") + "/uploads"
	}

	logger.Info("using local blob store", slog.String("dir", cfg.UploadDir))
	return blob.NewLocalStore(cfg.UploadDir, prefix)
}
