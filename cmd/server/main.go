package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AnshRaj112/thoughtify-backend/internal/config"
	"github.com/AnshRaj112/thoughtify-backend/internal/database"
	"github.com/AnshRaj112/thoughtify-backend/internal/handlers"
	"github.com/AnshRaj112/thoughtify-backend/internal/middleware"
	"github.com/AnshRaj112/thoughtify-backend/internal/routes"
	"github.com/AnshRaj112/thoughtify-backend/internal/services"
	"github.com/AnshRaj112/thoughtify-backend/internal/web"
	"github.com/AnshRaj112/thoughtify-backend/pkg/clientip"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load env
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if envErr != nil {
		log.Info("no .env file found")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	clientip.TrustProxyHeaders(cfg.TrustProxy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	log.Info("connecting to PostgreSQL")
	if err := database.ConnectPostgres(ctx, cfg.PostgresURI, log); err != nil {
		log.Fatal("failed to connect to PostgreSQL", "error", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Info("connecting to Redis")
	if err := database.ConnectRedis(ctx, cfg.RedisURI, log); err != nil {
		log.Fatal("failed to connect to Redis", "error", err)
	}
	defer database.DisconnectRedis()

	db := database.PostgresDB
	cache := services.NewCacheService(database.RedisClient)
	emotions := services.NewEmotionService(db, cache)
	if n, err := emotions.EnsureDefaults(ctx); err != nil {
		log.Warn("failed to seed emotion tags", "error", err)
	} else if n > 0 {
		log.Info("emotion tags seeded", "created", n)
	}

	drafts := services.NewDraftService(db, log)
	// Drafts older than a session can never be claimed
	drafts.StartDraftCleanup(ctx, cfg.DraftCleanupInterval, services.DraftMaxAge)
	log.Info("draft cleanup started", "interval", cfg.DraftCleanupInterval.String())

	renderer, err := web.New()
	if err != nil {
		log.Fatal("failed to parse templates", "error", err)
	}

	sessions := services.NewSessionStore(database.RedisClient, cfg.SecretKey)
	h := handlers.New(handlers.Deps{
		Sessions:      sessions,
		Accounts:      services.NewAccountService(db),
		Thoughts:      services.NewThoughtService(db, cfg.TimeZone),
		Feed:          services.NewFeedService(db),
		Likes:         services.NewLikeService(db),
		Drafts:        drafts,
		Tags:          emotions,
		Renderer:      renderer,
		Log:           log,
		SecureCookies: cfg.IsProduction(),
		BaseURL:       cfg.Host,
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → AuthRateLimit
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Info("production security enabled", "allowed_host", cfg.AllowedHost)
	}
	r.Use(middleware.LoadSession(sessions, log))

	writeLimiter := middleware.NewWriteLimiter(database.RedisClient, log)
	routes.SetupRoutes(r, h, writeLimiter.Middleware)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("thoughtify running", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
