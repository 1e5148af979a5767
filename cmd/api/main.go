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

	"github.com/petermazzocco/go-presenter/internal/auth"
	"github.com/petermazzocco/go-presenter/internal/config"
	"github.com/petermazzocco/go-presenter/internal/handlers"
	"github.com/petermazzocco/go-presenter/internal/imaging"
	"github.com/petermazzocco/go-presenter/internal/server"
	"github.com/petermazzocco/go-presenter/internal/storage"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/internal/upload"
	"github.com/petermazzocco/go-presenter/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func run(ctx context.Context, cfg config.Config) error {
	// Database connection
	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	// Sessions, bearer tokens and OAuth
	secret := []byte(cfg.SecretKey)
	sessionStore := auth.NewCookieStore(secret, cfg.SecureCookies, cfg.SessionMaxAge)
	authenticator := auth.NewAuthenticator(sessionStore, auth.NewTokenIssuer(secret, cfg.TokenTTL))
	if cfg.OAuth.GoogleEnabled() {
		auth.UseGoogle(cfg.OAuth.GoogleKey, cfg.OAuth.GoogleSecret, cfg.BaseURL+"/auth/google/callback", sessionStore)
	}

	// Object storage for uploads
	var pipeline *upload.Pipeline
	if cfg.Storage.Enabled() {
		objects, err := storage.NewS3Store(ctx, storage.Options{
			AccountID:       cfg.Storage.AccountID,
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			AccessKeySecret: cfg.Storage.AccessKeySecret,
			Bucket:          cfg.Storage.Bucket,
			PublicURL:       cfg.Storage.PublicURL,
		})
		if err != nil {
			return err
		}
		pipeline = upload.NewPipeline(imaging.NewCompressor(upload.MaxDimension, upload.MaxOutputBytes), objects)
	} else {
		slog.Warn("BUCKET_NAME or PUBLIC_URL not set, image uploads disabled")
	}

	site, err := web.New(db, cfg.OAuth.GoogleEnabled())
	if err != nil {
		return err
	}

	router := server.NewRouter(server.Deps{
		Handlers:      handlers.New(db, authenticator, pipeline),
		Auth:          authenticator,
		Site:          site,
		OAuthEnabled:  cfg.OAuth.GoogleEnabled(),
		RateLimit:     cfg.RateLimit,
		AccessLogging: true,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting API server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
