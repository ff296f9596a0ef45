// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"venuely/internal/analytics"
	"venuely/internal/bookings"
	"venuely/internal/cancellation"
	"venuely/internal/connections"
	"venuely/internal/notifications"
	"venuely/internal/shared/config"
	"venuely/internal/shared/constants"
	"venuely/internal/shared/database"
	"venuely/internal/shared/txguard"
	"venuely/internal/venues"
	"venuely/pkg/cache"
	"venuely/pkg/clock"
	"venuely/pkg/lock"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	guard  *txguard.Guard
	cache  cache.Service
	clock  clock.Clock

	publisher           notifications.Publisher
	notificationRepo    notifications.Repository
	notificationService notifications.Service

	venueRepo    venues.Repository
	venueService venues.Service

	ledger         bookings.Repository
	bookingService bookings.Service
	reconciler     *bookings.Reconciler
}

// NewRouter builds the shared infrastructure every module runs on. A nil publisher stores
// notifications directly.
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher) *Router {
	pg := db.GetPostgreSQL()
	rdb := db.GetRedisClient()

	lockTTL := lock.HoldTTL(cfg.Redis.LockTTL, cfg.Booking.StoreTimeout, cfg.Booking.MaxConflictRetries)
	locker := lock.New(rdb, constants.LOCK_KEY_VENUE, lockTTL)
	guard := txguard.New(pg, locker, txguard.Options{
		StoreTimeout:       cfg.Booking.StoreTimeout,
		MaxConflictRetries: cfg.Booking.MaxConflictRetries,
	})

	r := &Router{
		config:           cfg,
		db:               db,
		guard:            guard,
		cache:            cache.NewService(rdb),
		clock:            clock.Real,
		publisher:        publisher,
		notificationRepo: notifications.NewRepository(pg),
		venueRepo:        venues.NewRepository(pg),
		ledger:           bookings.NewRepository(pg),
	}
	r.notificationService = notifications.NewService(r.notificationRepo, publisher, guard)
	r.venueService = venues.NewService(r.venueRepo, guard, r.cache)
	r.bookingService = bookings.NewService(r.ledger, r.venueRepo, guard, r.venueService,
		r.notificationService, cfg.Booking, r.clock)
	r.venueService.SetReservationChecker(r.bookingService)
	r.reconciler = bookings.NewReconciler(r.ledger, r.venueRepo, guard, r.venueService,
		cfg.Reconcile.Interval, cfg.Reconcile.Repair)
	return r
}

// Reconciler exposes the capacity reconciliation job so main can own its lifecycle
func (r *Router) Reconciler() *bookings.Reconciler {
	return r.reconciler
}

// NotificationRepository is shared with the Kafka consumer that persists published notifications
func (r *Router) NotificationRepository() notifications.Repository {
	return r.notificationRepo
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	if r.config.Metrics.Enabled {
		engine.GET(r.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
	if !r.config.IsProduction() {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupVenueRoutes(api)
		r.setupBookingRoutes(api)
		r.setupCancellationRoutes(api)
		r.setupNotificationRoutes(api)
		r.setupConnectionRoutes(api)
		r.setupAnalyticsRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "venuely-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "venuely-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"redis":       r.db.GetRedisClient() != nil,
			"kafka":       r.config.Kafka.Enabled,
			"reconciler":  r.config.Reconcile.Enabled,
			"timestamp":   time.Now(),
		})
	})
}

func (r *Router) setupVenueRoutes(rg *gin.RouterGroup) {
	venues.SetupVenueRoutes(rg, venues.NewController(r.venueService), r.config)
}

func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookings.SetupBookingRoutes(rg, bookings.NewController(r.bookingService), r.config)
	bookings.SetupAdminRoutes(rg, r.reconciler, r.config)
}

// setupCancellationRoutes shares the venue lock, ledger and notifier with booking admission
func (r *Router) setupCancellationRoutes(rg *gin.RouterGroup) {
	repo := cancellation.NewRepository(r.db.GetPostgreSQL())
	service := cancellation.NewService(repo, r.ledger, r.venueRepo, r.guard, r.venueService,
		r.notificationService, r.config.Booking, r.clock)
	cancellation.SetupCancellationRoutes(rg, cancellation.NewController(service), r.config)
}

func (r *Router) setupNotificationRoutes(rg *gin.RouterGroup) {
	notifications.SetupNotificationRoutes(rg, notifications.NewController(r.notificationService), r.config)
}

func (r *Router) setupConnectionRoutes(rg *gin.RouterGroup) {
	repo := connections.NewRepository(r.db.GetPostgreSQL())
	service := connections.NewService(repo, r.guard, r.notificationService, r.clock)
	connections.SetupConnectionRoutes(rg, connections.NewController(service), r.config)
}

func (r *Router) setupAnalyticsRoutes(rg *gin.RouterGroup) {
	repo := analytics.NewRepository(r.db.GetPostgreSQL())
	service := analytics.NewService(repo, r.guard, r.cache, r.clock, r.config.Booking.Location())
	analytics.SetupAnalyticsRoutes(rg, analytics.NewController(service), r.config)
}
