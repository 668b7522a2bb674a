package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"

	"github.com/organcare/webapp/internal/application"
	"github.com/organcare/webapp/internal/application/workspace"
	"github.com/organcare/webapp/internal/config"
	"github.com/organcare/webapp/internal/domain/session"
	"github.com/organcare/webapp/internal/infra/apiclient"
	mysqlp "github.com/organcare/webapp/internal/infra/db/mysql"
	postgresp "github.com/organcare/webapp/internal/infra/db/postgres"
	"github.com/organcare/webapp/internal/infra/httpserver"
	previewStore "github.com/organcare/webapp/internal/infra/storage"
	"github.com/organcare/webapp/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	cfg, err := config.Load(path)
	if err != nil {
		log.Error("config load error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// preference database
	db, prefs, err := connectPreferences(ctx, cfg)
	if err != nil {
		log.Error("database connect error", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// staged-image preview store
	previews, err := previewStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Error("preview store init error", "error", err)
		os.Exit(1)
	}

	// backend analysis API client
	backend := apiclient.New(cfg.Backend.BaseURL, cfg.BackendTimeout())

	// per-session form workspaces
	workspaces := workspace.NewManager(previews, backend, backend, application.SystemClock{}, log)

	api := httpserver.NewRouter(workspaces, prefs, httpserver.Options{
		SigninURL:      cfg.Auth.SigninURL,
		CookieDomain:   cfg.Auth.CookieDomain,
		DefaultTheme:   cfg.Theme.Default,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)

	mux := chi.NewRouter()
	mux.Use(middleware.RequestLogger(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimit(limiter))
	mux.Use(middleware.BrowserID(cfg.Auth.SecureCookies))
	mux.Use(middleware.SessionAuth([]byte(cfg.Auth.JWTSecret)))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database":      &middleware.DatabaseHealthChecker{DB: db},
		"preview_store": middleware.CheckerFunc(previews.Check),
	}))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", api)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second, // analysis submissions wait on the backend
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error("shutdown error", "error", err)
	}
}

func connectPreferences(ctx context.Context, cfg *config.Config) (*sql.DB, session.PreferenceStore, error) {
	switch cfg.Database.Driver {
	case "postgres":
		pdb, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return pdb, postgresp.NewPreferenceRepository(pdb), nil
	default:
		mdb, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		return mdb, mysqlp.NewPreferenceRepository(mdb), nil
	}
}
