package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spazaafy/platform/internal/adapters/legacyhr"
	"github.com/spazaafy/platform/internal/hr"
	"github.com/spazaafy/platform/internal/legal"
	legalapi "github.com/spazaafy/platform/internal/legal/api"
	legaldomain "github.com/spazaafy/platform/internal/legal/domain"
	legalinfra "github.com/spazaafy/platform/internal/legal/infrastructure"
	"github.com/spazaafy/platform/internal/notification"
	"github.com/spazaafy/platform/internal/shared/auth"
	"github.com/spazaafy/platform/internal/shared/config"
	"github.com/spazaafy/platform/internal/shared/database"
	"github.com/spazaafy/platform/internal/shared/events"
	"github.com/spazaafy/platform/internal/shared/metrics"
	secmiddleware "github.com/spazaafy/platform/internal/shared/middleware"
	"github.com/spazaafy/platform/internal/shops"
	"github.com/spazaafy/platform/internal/storage"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &App{Config: cfg, Logger: logger}

	// Database (optional - in-memory fallback for local development)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Warn("database not available, using in-memory stores", "error", err)
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		go trackDBConnections(ctx, db)
	}

	// Event bus (optional)
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventStore.Enabled {
		bus, err := events.NewBus(ctx, cfg.EventStore)
		if err != nil {
			logger.Warn("event store not available, lifecycle events disabled", "error", err)
		} else {
			app.Bus = bus
			defer bus.Close()
			publisher = bus
			logger.Info("event bus connected", "host", cfg.EventStore.Host)
		}
	}
	publisher = events.LoggingPublisher{Next: publisher, Logger: logger}

	dispatcher := buildDispatcher(cfg, logger)

	store, err := storage.NewDiskStore(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize document storage", "error", err)
		os.Exit(1)
	}

	// Repositories
	var legalRepo legaldomain.Repository
	var hrRepo hr.Repository
	var shopsRepo shops.Repository
	if app.DB != nil {
		legalRepo = legalinfra.NewPostgresRepository(app.DB.Pool)
		hrRepo = hr.NewPostgresRepository(app.DB.Pool)
		shopsRepo = shops.NewPostgresRepository(app.DB.Pool)
	} else {
		memLegal := legalinfra.NewMemoryRepository()
		legalRepo = memLegal
		hrRepo = hr.NewMemoryRepository(memLegal)
		shopsRepo = shops.NewMemoryRepository()
	}

	// Services
	legalService := legal.NewService(legalRepo, store, dispatcher, publisher, cfg.App, logger)
	hrService := hr.NewService(hrRepo, dispatcher, publisher, cfg.App, logger)
	legalService.SetBridge(hrService)
	shopsService := shops.NewService(shopsRepo, store, logger)

	legalHandler := legalapi.NewHandler(legalService)
	hrHandler := hr.NewHandler(hrService)
	shopsHandler := shops.NewHandler(shopsService)

	// Legacy payroll importer (optional)
	if cfg.LegacyHR.Enabled {
		adapter := legacyhr.New(cfg.LegacyHR, hrService, logger)
		if err := adapter.Start(ctx); err != nil {
			logger.Warn("legacy HR adapter failed to start", "error", err)
		} else {
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := adapter.Stop(stopCtx); err != nil {
					logger.Warn("legacy HR adapter stop failed", "error", err)
				}
			}()
		}
	}

	intakeLimiter := secmiddleware.NewIPRateLimiter(5, 10)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.RequestLogger(logger))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))
	r.Use(metrics.Middleware)

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", infoHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Public legal intake and amendment upload. No auth; rate limited
		// and body capped instead.
		r.Group(func(r chi.Router) {
			r.Use(intakeLimiter.Middleware)
			r.Use(secmiddleware.BodyLimit(legal.MaxUploadSize + 1024*1024))
			r.Mount("/legal", legalHandler.PublicRoutes())
		})

		// Authenticated surface. Shops, documents, and tickets rely on the
		// scope resolver for visibility.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth))
			r.Mount("/", shopsHandler.Routes())
		})

		// Staff-only administration.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth))
			r.Use(auth.RequireStaff)
			r.Mount("/admin/legal", legalHandler.AdminRoutes())
			r.Mount("/admin/hr", hrHandler.AdminRoutes())
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		close(done)
	}()

	logger.Info("spazaafy platform started",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"database", app.DB != nil,
		"event_bus", app.Bus != nil,
		"legacy_hr", cfg.LegacyHR.Enabled,
	)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

// buildDispatcher assembles the outbound mail chain: primary SMTP, then
// fallback SMTP, then the console sink. The console sink is always last
// so no notification is ever silently lost in development.
func buildDispatcher(cfg *config.Config, logger *slog.Logger) *notification.Dispatcher {
	var providers []notification.Provider
	if cfg.SMTP.Enabled {
		providers = append(providers, notification.NewSMTPProvider("smtp-primary", cfg.SMTP))
	}
	if cfg.SMTPFallback.Enabled {
		providers = append(providers, notification.NewSMTPProvider("smtp-fallback", cfg.SMTPFallback))
	}
	providers = append(providers, notification.NewConsoleProvider())
	return notification.NewDispatcher(logger, providers...)
}

func trackDBConnections(ctx context.Context, db *database.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.RecordDBConnections(int(db.Pool.Stat().TotalConns()))
		}
	}
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Spazaafy Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			checks["event_bus"] = "ready"
		} else {
			checks["event_bus"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
