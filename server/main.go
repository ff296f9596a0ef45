package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venuely/api/routes"
	_ "venuely/docs"
	"venuely/internal/notifications"
	"venuely/internal/shared/config"
	"venuely/internal/shared/constants"
	"venuely/internal/shared/database"
	"venuely/internal/shared/middleware"
	"venuely/internal/shared/validation"
	"venuely/pkg/lock"
	"venuely/pkg/logger"
	"venuely/pkg/metrics"
	"venuely/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// @title Venuely API
// @version 1.0
// @description Venue table booking with capacity admission, cancellations and refunds.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	appLogger := logger.NewWithOptions(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	logger.SetDefault(appLogger)

	if envErr != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}
	appLogger.Info("Starting venuely",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("commit", GitCommit),
	)

	if err := validation.Register(); err != nil {
		appLogger.Error("Failed to register request validators", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("Failed to connect to the database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if rdb := db.GetRedisClient(); rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		locker := lock.NewRedisLocker(rdb, constants.LOCK_KEY_VENUE,
			lock.HoldTTL(cfg.Redis.LockTTL, cfg.Booking.StoreTimeout, cfg.Booking.MaxConflictRetries))
		if err := locker.PreloadScripts(ctx); err != nil {
			appLogger.Error("Failed to preload Redis lock scripts", slog.Any("error", err))
		} else {
			appLogger.Info("Redis lock scripts preloaded")
		}
		cancel()
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
			Enabled:                 cfg.RateLimit.Enabled,
			WindowDuration:          cfg.RateLimit.WindowDuration,
			DefaultRequests:         cfg.RateLimit.DefaultRequests,
			PublicRequests:          cfg.RateLimit.PublicRequests,
			BookingRequests:         cfg.RateLimit.BookingRequests,
			BookingCriticalRequests: cfg.RateLimit.BookingCritical,
			AdminRequests:           cfg.RateLimit.AdminRequests,
			UserRequests:            cfg.RateLimit.UserRequests,
			HealthRequests:          cfg.RateLimit.HealthRequests,
			WhitelistedIPs:          cfg.RateLimit.WhitelistedIPs,
			LocalIdleEviction:       cfg.RateLimit.LocalIdleEviction,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Bool("shared", db.GetRedisClient() != nil),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Kafka carries notifications when enabled; otherwise they are stored inline
	var publisher notifications.Publisher
	if cfg.Kafka.Enabled {
		producerCfg := notifications.DefaultKafkaProducerConfig()
		producerCfg.Brokers = cfg.Kafka.Brokers
		producerCfg.Topic = cfg.Kafka.NotificationTopic
		kafkaPublisher, err := notifications.NewKafkaPublisher(producerCfg)
		if err != nil {
			appLogger.Error("Failed to start Kafka publisher, storing notifications inline", slog.Any("error", err))
		} else {
			publisher = kafkaPublisher
			defer kafkaPublisher.Close()
		}
	}

	appRouter := routes.NewRouter(cfg, db, publisher)

	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if publisher != nil {
		consumerCfg := notifications.DefaultConsumerConfig()
		consumerCfg.Brokers = cfg.Kafka.Brokers
		consumerCfg.GroupID = cfg.Kafka.ConsumerGroupID
		consumerCfg.Topics = []string{cfg.Kafka.NotificationTopic}
		consumerCfg.NumWorkers = cfg.Kafka.NumConsumerWorkers

		consumer, err := notifications.NewConsumer(consumerCfg, appRouter.NotificationRepository())
		if err != nil {
			appLogger.Error("Failed to start notification consumer", slog.Any("error", err))
		} else {
			consumer.Start(backgroundCtx)
			appLogger.Info("Notification consumer started", slog.Int("workers", consumerCfg.NumWorkers))
			defer func() {
				appLogger.Info("Stopping notification consumer...")
				// Stop waits for the workers, which only exit once their context is done
				stopBackground()
				if err := consumer.Stop(); err != nil {
					appLogger.Error("Error stopping notification consumer", slog.Any("error", err))
				}
			}()
		}
	}

	if cfg.Reconcile.Enabled {
		reconciler := appRouter.Reconciler()
		reconciler.Start(backgroundCtx)
		appLogger.Info("Capacity reconciler started",
			slog.Duration("interval", cfg.Reconcile.Interval),
			slog.Bool("repair", cfg.Reconcile.Repair),
		)
		defer reconciler.Stop()
	}

	router := setupRouter(cfg, appRouter, rateLimiter)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_base", fmt.Sprintf("http://localhost:%s%s", cfg.Port, cfg.GetAPIBasePath())),
			slog.String("version", cfg.APIVersion),
			slog.Bool("redis", db.GetRedisClient() != nil),
			slog.Bool("kafka", publisher != nil),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(middleware.RequestID(), RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Idempotent-Replayed", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	appRouter.SetupRoutes(engine)

	return engine
}

// RequestLoggerMiddleware logs each request and feeds the HTTP collectors
func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	httpMetrics := metrics.HTTP()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
		httpMetrics.Observe(c.Request.Method, c.FullPath(), c.Writer.Status(), duration)
	}
}
