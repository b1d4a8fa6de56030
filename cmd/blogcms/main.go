// Package main is the entry point for the blog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"blogcms/internal/api"
	"blogcms/internal/config"
	"blogcms/internal/database"
	"blogcms/internal/handlers"
	"blogcms/internal/middleware"
	"blogcms/internal/render"
	"blogcms/internal/router"
	"blogcms/internal/serialize"
	"blogcms/internal/session"
	"blogcms/internal/storage"
	"blogcms/internal/store"
)

func main() {
	// A local .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON elsewhere.
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(context.Background(), cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the admin user and sample content (no-op if data already exists).
	if cfg.DoSeed || cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for sessions.
	valkeyClient, err := session.Connect(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Featured images go to S3 when configured, the local media root otherwise.
	var media storage.Storage
	mediaRoot := ""
	if cfg.UseS3() {
		s3, err := storage.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage configured", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		media = s3
	} else {
		local, err := storage.NewLocal(cfg.MediaRoot, cfg.MediaURL)
		if err != nil {
			slog.Error("failed to initialize media directory", "error", err)
			os.Exit(1)
		}
		slog.Info("local media storage", "root", local.Root())
		media = local
		mediaRoot = local.Root()
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	postStore := store.NewPostStore(db)
	commentStore := store.NewCommentStore(db)
	contactStore := store.NewContactStore(db)

	ser := serialize.New(media.URL, cfg.SiteURL)

	contactLimiter := middleware.NewRateLimiter(cfg.ContactRateLimit, cfg.ContactRateWindow)
	if err := contactLimiter.TrustProxies(cfg.TrustedProxies); err != nil {
		slog.Error("invalid TRUSTED_PROXIES", "error", err)
		os.Exit(1)
	}
	defer contactLimiter.Stop()

	// Create handler groups with their dependencies.
	apiHandler := api.New(postStore, categoryStore, commentStore, contactStore, media, ser, contactLimiter.Middleware)
	siteHandlers := handlers.NewSite(renderer, postStore, categoryStore, commentStore, contactStore, media, ser, cfg.MaxUpload)
	adminHandlers := handlers.NewAdmin(renderer, postStore, categoryStore, commentStore, contactStore)
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore)

	r := router.New(sessionStore, apiHandler, siteHandlers, adminHandlers, authHandlers, router.Options{
		SecureCookies: secureCookies,
		CORSOrigins:   cfg.CORSAllowedOrigins,
		MediaRoot:     mediaRoot,
		ContactLimit:  contactLimiter.Middleware,
	})

	// ReadTimeout leaves room for featured image uploads.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
