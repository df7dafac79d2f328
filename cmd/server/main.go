package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/notify"
	"github.com/example/storefront/pkg/orders"
	"github.com/example/storefront/pkg/ratelimit"
	"github.com/example/storefront/pkg/razorpay"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/server"
	"go.uber.org/zap"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront server",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Relational store
	store, err := repository.NewStore(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()

	// Rate limiter: redis fixed window when reachable, per-process
	// fallback otherwise.
	limiter, redisRepo := newLimiter(ctx, cfg, logger)
	if redisRepo != nil {
		defer redisRepo.Close()
	}

	// Audit trail
	var auditor orders.Auditor
	var auditReader server.AuditReader
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			logger.Warn("MongoDB connection failed, audit trail disabled", zap.Error(err))
		} else {
			auditor = mongoRepo
			auditReader = mongoRepo
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				mongoRepo.Close(closeCtx)
			}()
		}
	}

	// Notification actor
	mailer := notify.NewMailer(&cfg.SMTP, cfg.App.PublicURL)
	notifier, err := notify.NewNotifier(mailer, logger)
	if err != nil {
		logger.Fatal("Failed to start notifier", zap.Error(err))
	}
	defer notifier.Shutdown()

	// Core order service
	gateway := razorpay.NewClient(&cfg.Razorpay)
	orderSvc := orders.NewService(store, gateway, limiter, notifier, auditor,
		logger.Named("orders"), cfg.Razorpay.KeySecret, cfg.RateLimit.CreateLimit)

	sessions := auth.NewSessions(cfg.Admin.SessionSecret)

	// HTTP server
	srv := server.NewServer(cfg, store, redisRepo, auditReader, orderSvc, sessions, limiter, logger)
	srv.SetupRoutes()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// newLimiter picks the rate-limiter backend. Redis counters are shared
// across instances; when redis is not configured or not reachable the
// per-process window limiter takes over and the redis-backed order cache
// stays off (nil repository).
func newLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ratelimit.Limiter, *repository.RedisRepository) {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis not configured, using in-process rate limiter")
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Window), nil
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed, using in-process rate limiter", zap.Error(err))
		redisRepo.Close()
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Window), nil
	}

	logger.Info("Redis connected successfully")
	return ratelimit.NewWindowLimiter(redisRepo, cfg.RateLimit.Window, "rl"), redisRepo
}
