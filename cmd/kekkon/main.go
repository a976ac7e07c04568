// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the kekkon server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kekkon/internal/cache"
	"kekkon/internal/config"
	"kekkon/internal/database"
	"kekkon/internal/handlers"
	"kekkon/internal/mailer"
	"kekkon/internal/middleware"
	"kekkon/internal/preview"
	"kekkon/internal/render"
	"kekkon/internal/router"
	"kekkon/internal/session"
	"kekkon/internal/storage"
	"kekkon/internal/store"
	"kekkon/internal/token"
)

func main() {
	sample := flag.String("render-sample", "", "write a sample preview to `base`.png and base.svg, then exit")
	flag.Parse()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProd() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	fonts := preview.NewFontSet(append([]string{cfg.PreviewFontDir}, preview.SystemFontDirs()...)...)
	previewOpts := preview.Options{
		Locale:          preview.MatchLocale(cfg.PreviewLocale),
		Brand:           cfg.PreviewBrand,
		PortraitTimeout: cfg.PreviewPortraitTimeout,
		Fonts:           fonts,
	}

	if *sample != "" {
		if err := renderSample(*sample, previewOpts); err != nil {
			slog.Error("render sample failed", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"base_url", cfg.BaseURL,
		"storage", cfg.StorageDriver,
		"mail", cfg.MailProvider,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, share pages and preview images).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient, cfg.SessionSecure)

	// Photo storage: local disk served under /uploads, or an S3 bucket.
	var (
		backend storage.Backend
		uploads http.Handler
	)
	switch cfg.StorageDriver {
	case "s3":
		s3, err := storage.NewS3(storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		backend = s3
		slog.Info("s3 storage configured", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	default:
		local, err := storage.NewLocal(cfg.UploadDir, cfg.BaseURL+"/uploads")
		if err != nil {
			slog.Error("failed to initialize local storage", "error", err)
			os.Exit(1)
		}
		backend = local
		uploads = http.FileServer(http.Dir(local.Root()))
		slog.Info("local storage configured", "dir", local.Root())
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	invitationStore := store.NewInvitationStore(db)
	guestStore := store.NewGuestStore(db)
	statsStore := store.NewStatsStore(db)

	compositor := preview.New(backend, previewOpts)
	sans, serif := fonts.Families()
	slog.Info("preview compositor ready", "locale", previewOpts.Locale, "sans", sans, "serif", serif)

	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)
	imageCache := cache.NewImageCache(valkeyClient, cfg.OGCacheTTL)
	invalidator := cache.NewInvalidator(pageCache, imageCache)

	signer := token.NewSigner(cfg.GuestTokenSecret)
	mail := mailer.New(mailer.Config{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFrom,
		FromName:    cfg.MailFromName,
		SES: mailer.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKey,
			SecretAccessKey: cfg.SESSecretKey,
		},
	})

	// Per-IP throttles for credential checks and the public RSVP form.
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()
	rsvpLimiter := middleware.NewRateLimiter(20, time.Minute)
	defer rsvpLimiter.Stop()

	r := router.New(router.Deps{
		Sessions:    sessionStore,
		Auth:        handlers.NewAuth(sessionStore, userStore),
		Invitations: handlers.NewInvitations(invitationStore, backend, compositor, invalidator),
		Guests:      handlers.NewGuests(invitationStore, guestStore, signer, cfg.BaseURL, cfg.GuestTokenTTL),
		Public: handlers.NewPublic(handlers.PublicDeps{
			Invitations: invitationStore,
			Guests:      guestStore,
			Users:       userStore,
			Storage:     backend,
			Previews:    compositor,
			ImageCache:  imageCache,
			PageCache:   pageCache,
			Renderer:    renderer,
			Signer:      signer,
			Mailer:      mail,
			BaseURL:     cfg.BaseURL,
			Locale:      previewOpts.Locale,
		}),
		Admin:         handlers.NewAdmin(userStore, invitationStore, statsStore, backend, invalidator),
		AuthLimiter:   authLimiter,
		RSVPLimiter:   rsvpLimiter,
		Uploads:       uploads,
		SecureCookies: cfg.SessionSecure,
	})

	// WriteTimeout must cover a cold preview render plus upload
	// normalization of a 10 MB photo.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
