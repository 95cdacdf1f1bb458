// Package main is the entry point for the social-auth API server.
//
// It reads configuration, creates the logger and the optional media host,
// then hands everything to internal/server. All actual logic lives in the
// internal packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/social-auth/internal/config"
	"github.com/sakif/social-auth/internal/server"
	"github.com/sakif/social-auth/internal/service"
	"github.com/sakif/social-auth/internal/storage/minio"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.Level(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// os.MkdirAll is a no-op when the directory already exists.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// The media host is optional: without it the server runs and only
	// /user/upload fails.
	var store service.MediaStore
	if cfg.Storage.Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := minio.NewClient(ctx, minio.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		cancel()
		if err != nil {
			logger.Error("failed to connect to media host",
				slog.String("endpoint", cfg.Storage.Endpoint),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		store = client
	}

	srv, err := server.New(cfg, logger, store)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
