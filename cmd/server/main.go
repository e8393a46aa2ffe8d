package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/roomstay/internal/events"
	"github.com/yourorg/roomstay/internal/handler"
	"github.com/yourorg/roomstay/internal/infrastructure/logger"
	"github.com/yourorg/roomstay/internal/infrastructure/media"
	"github.com/yourorg/roomstay/internal/infrastructure/redis"
	"github.com/yourorg/roomstay/internal/observability/metrics"
	"github.com/yourorg/roomstay/internal/observability/tracing"
	"github.com/yourorg/roomstay/internal/repository"
	"github.com/yourorg/roomstay/internal/security/audit"
	"github.com/yourorg/roomstay/internal/security/auth"
	"github.com/yourorg/roomstay/internal/security/middleware"
	"github.com/yourorg/roomstay/internal/security/ratelimit"
	"github.com/yourorg/roomstay/internal/service"
	"github.com/yourorg/roomstay/internal/worker"
	"github.com/yourorg/roomstay/pkg/config"
	"github.com/yourorg/roomstay/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting roomstay server",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
	)

	// 2. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, "roomstay", cfg.Environment)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// 3. Backing stores
	pool, err := database.NewConnectionPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()
	if err := pool.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()

	// 4. Media host client
	mediaClient, err := media.NewClient(media.Config{
		BaseURL:   cfg.MediaBaseURL,
		APIKey:    cfg.MediaAPIKey,
		APISecret: cfg.MediaAPISecret,
		Folder:    cfg.MediaFolder,
		Timeout:   30 * time.Second,
	}, log)
	if err != nil {
		return fmt.Errorf("creating media client: %w", err)
	}

	// 5. Repositories
	db := pool.GetDB()
	roomRepo := repository.NewPostgresRoomRepository(db, log)
	categoryRepo := repository.NewPostgresCategoryRepository(db, log)
	userRepo := repository.NewPostgresUserRepository(db, log)
	orphanQueue := repository.NewRedisOrphanQueue(redisClient, log)

	// 6. Live event feed
	hub := events.NewHub(log, cfg.CORSAllowedOrigins)
	defer hub.Close()

	// 7. Services
	roomSvc := service.NewRoomService(roomRepo, categoryRepo, mediaClient, orphanQueue, hub, log, cfg.MaxImagesPerRoom)
	categorySvc := service.NewCategoryService(categoryRepo, log)
	tokens := auth.NewTokenManager(cfg.JWTSecret, "roomstay", time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	authSvc := service.NewAuthService(userRepo, tokens, log)

	// 8. Background orphan reaper
	reaper := worker.NewOrphanReaper(orphanQueue, mediaClient, log, time.Duration(cfg.ReaperIntervalMinutes)*time.Minute)
	go reaper.Run(ctx)

	// 9. HTTP routes
	production := cfg.IsProduction()
	maxUploadBytes := cfg.MaxUploadMB << 20

	mux := http.NewServeMux()
	mux.Handle("POST /api/rooms", handler.NewCreateRoomHandler(roomSvc, mediaClient, log, production, maxUploadBytes))
	mux.Handle("GET /api/rooms", handler.NewListRoomsHandler(roomSvc, mediaClient, log, production))
	mux.Handle("GET /api/rooms/{id}", handler.NewGetRoomHandler(roomSvc, mediaClient, log, production))
	mux.Handle("PUT /api/rooms/{id}", handler.NewUpdateRoomHandler(roomSvc, mediaClient, log, production, maxUploadBytes))
	mux.Handle("DELETE /api/rooms/{id}", handler.NewDeleteRoomHandler(roomSvc, log, production))
	mux.Handle("GET /api/categories", handler.NewListCategoriesHandler(categorySvc, log, production))
	mux.Handle("POST /api/categories", handler.NewCreateCategoryHandler(categorySvc, log, production))
	mux.Handle("POST /api/auth/register", handler.NewRegisterHandler(authSvc, log, production))
	mux.Handle("POST /api/auth/login", handler.NewLoginHandler(authSvc, log, production))
	mux.Handle("GET /ws/rooms", hub)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /healthz", &handler.HealthHandler{})
	mux.Handle("GET /readyz", handler.NewReadyHandler(log, map[string]handler.Pinger{
		"postgres": handler.PingerFunc(pool.Health),
		"redis":    redisClient,
	}))

	// 10. Middleware chain, outermost first
	limiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLog := audit.NewLogger(log)

	var root http.Handler = mux
	root = audit.Middleware(auditLog)(root)
	root = middleware.RateLimitMiddleware(limiter, log)(root)
	root = middleware.AuthGate(tokens, userRepo, log)(root)
	root = middleware.CORSMiddleware(cfg.CORSAllowedOrigins)(root)
	root = otelhttp.NewHandler(root, "roomstay-api")
	root = metrics.HTTPMetricsMiddleware(root)
	root = middleware.RequestIDMiddleware(root)

	// 11. Serve until interrupted, then drain
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
