package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"table-sync/internal/bootstrap"
	"table-sync/internal/config"
	"table-sync/internal/controller"
	"table-sync/internal/logger"
	"table-sync/internal/middleware"
	"table-sync/internal/security"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./configs/config.yaml)")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.InitLogger(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	defer logger.Close()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.InitMetrics()

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	engine, err := bootstrap.NewEngine(startCtx, cfg, log)
	cancel()
	if err != nil {
		log.Error("Failed to initialize sync engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	routerOpts := controller.RouterOptions{AllowedOrigins: cfg.Security.AllowedOrigins}
	if cfg.Security.EnableAuth {
		jwtManager := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
		routerOpts.Auth = security.NewAuthMiddleware(jwtManager)
	}
	if cfg.Security.EnableRateLimit {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPM:             cfg.Security.RateLimitPerMinute,
			Burst:           cfg.Security.RateLimitBurst,
			CleanupInterval: 5 * time.Minute,
		})
		defer rateLimiter.Stop()
		routerOpts.RateLimiter = rateLimiter
	}

	syncController := controller.NewSyncController(engine.Sync, engine.Status, log)
	healthController := controller.NewHealthController(engine.Health, engine.Pool)
	router := controller.NewRouter(syncController, healthController, routerOpts)

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting table-sync server", "addr", srv.Addr, "tables", engine.Catalog.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
}
