package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/verified-reviews/internal/businesses"
	"github.com/richxcame/verified-reviews/internal/coupons"
	"github.com/richxcame/verified-reviews/internal/fraud"
	"github.com/richxcame/verified-reviews/internal/geo"
	"github.com/richxcame/verified-reviews/internal/notifications"
	"github.com/richxcame/verified-reviews/internal/reviews"
	"github.com/richxcame/verified-reviews/internal/security"
	"github.com/richxcame/verified-reviews/pkg/common"
	"github.com/richxcame/verified-reviews/pkg/config"
	"github.com/richxcame/verified-reviews/pkg/database"
	"github.com/richxcame/verified-reviews/pkg/health"
	"github.com/richxcame/verified-reviews/pkg/logger"
	"github.com/richxcame/verified-reviews/pkg/middleware"
	redisclient "github.com/richxcame/verified-reviews/pkg/redis"
	"github.com/richxcame/verified-reviews/pkg/resilience"
	"github.com/richxcame/verified-reviews/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName    = "reviews"
	serviceVersion = "1.0.0"

	maxRequestBody = 64 << 10
)

// app holds the wired dependencies of the service
type app struct {
	service    *reviews.Service
	reviews    *reviews.Handler
	coupons    *coupons.Handler
	fraud      *fraud.Handler
	sink       *fraud.AlertSink
	checks     map[string]func() error
	closeFuncs []func()
}

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment, serviceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting review service",
		zap.String("environment", cfg.Server.Environment),
		zap.String("storage", cfg.Review.StorageDriver),
	)

	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     serviceName + "@" + serviceVersion,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.Server.Environment, cfg.Tracing)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	a, err := wire(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to wire dependencies", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      setupRouter(cfg, a),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Review service listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down review service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	a.service.Wait()
	if a.sink != nil {
		a.sink.Wait()
	}
	for i := len(a.closeFuncs) - 1; i >= 0; i-- {
		a.closeFuncs[i]()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Review service stopped")
}

// wire builds the pipeline for the configured storage driver. Redis and NATS
// are optional; the service degrades to no cache, no in-flight lock and log
// notifications without them.
func wire(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{checks: make(map[string]func() error)}

	loc, err := cfg.Review.Location()
	if err != nil {
		return nil, err
	}

	var rc *redisclient.Client
	if cfg.Redis.Enabled {
		rc, err = redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache and in-flight lock", zap.Error(err))
			rc = nil
		} else {
			a.checks["redis"] = health.RedisChecker(rc.Client)
			a.closeFuncs = append(a.closeFuncs, func() { _ = rc.Close() })
		}
	}

	var (
		store       reviews.Store
		lookup      businesses.Lookup
		couponStore coupons.Reader
		alerts      fraud.AlertReader
		sinks       []fraud.Sink
	)

	switch cfg.Review.StorageDriver {
	case "memory":
		bs := businesses.NewMemoryStore()
		cs := coupons.NewMemoryStore()
		if path := cfg.Review.MemorySeedPath; path != "" {
			nb, nt, err := loadMemorySeed(path, bs, cs)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded memory seed", zap.String("path", path), zap.Int("businesses", nb), zap.Int("templates", nt))
		}
		store = reviews.NewMemoryStore(bs, cs)
		lookup = bs
		couponStore = cs
		logger.Warn("Using in-memory storage; data is lost on restart")

	default:
		if cfg.Database.RunMigrations {
			if err := database.RunMigrations(cfg.Database.URL()); err != nil {
				return nil, err
			}
		}

		pool, err := database.NewPostgresPool(ctx, &cfg.Database, serviceName)
		if err != nil {
			return nil, err
		}
		a.checks["database"] = health.DatabaseChecker(pool)
		a.closeFuncs = append(a.closeFuncs, pool.Close)

		store = reviews.NewRepository(pool)
		lookup = businesses.NewRepository(pool)
		couponStore = coupons.NewRepository(pool)

		alertRepo := fraud.NewRepository(pool)
		alerts = alertRepo
		a.sink = fraud.NewAlertSink(alertRepo, 5*time.Second, cfg.Review.AlertMaxInFlight)
		sinks = append(sinks, a.sink)
	}

	var invalidator reviews.CacheInvalidator
	if rc != nil {
		cached := businesses.NewCachedLookup(lookup, rc, time.Duration(cfg.Review.BusinessCacheSeconds)*time.Second)
		lookup = cached
		invalidator = cached
	}

	recorder := fraud.NewRecorder(cfg.Review.RecorderCapacity, sinks...)
	evaluator := security.NewEvaluator(security.PolicyFromConfig(cfg.Security), recorder)
	issuer := coupons.NewIssuer(cfg.Review.CouponCodeLength, cfg.Review.CouponValidityHours)

	a.service = reviews.NewService(store, lookup, evaluator, recorder, issuer, reviews.Config{
		DailyLimit:          cfg.Review.DailyLimit,
		DefaultRadiusMeters: cfg.Review.DefaultRadiusMeters,
		Location:            loc,
		InflightLockTTL:     time.Duration(cfg.Review.InflightLockSeconds) * time.Second,
		NotificationTimeout: time.Duration(cfg.Review.NotificationTimeoutMS) * time.Millisecond,
	})

	indexer, err := geo.NewIndexer(cfg.Review.H3Resolution)
	if err != nil {
		logger.Warn("H3 indexing disabled", zap.Error(err))
	} else {
		a.service.SetIndexer(indexer)
	}

	if rc != nil {
		a.service.SetLocker(rc)
		a.service.SetCacheInvalidator(invalidator)
	}

	if cfg.NATS.Enabled {
		nc, err := notifications.Connect(cfg.NATS, serviceName)
		if err != nil {
			logger.Warn("NATS unavailable, notifications will be logged only", zap.Error(err))
		} else {
			a.service.SetNotifier(natsDispatcher(cfg, nc))
			a.checks["nats"] = health.StatusChecker("nats", nc.IsConnected)
			a.closeFuncs = append(a.closeFuncs, func() { _ = nc.Drain() })
		}
	}

	a.reviews = reviews.NewHandler(a.service)
	a.coupons = coupons.NewHandler(couponStore)
	a.fraud = fraud.NewHandler(recorder, alerts)

	return a, nil
}

func natsDispatcher(cfg *config.Config, nc *nats.Conn) *notifications.NATSDispatcher {
	dispatcher := notifications.NewNATSDispatcher(nc, cfg.NATS.Subject)
	breaker := resilience.NewCircuitBreaker(
		resilience.SettingsFromConfig("notifications-nats", cfg.Breaker),
		resilience.LogAndReject("nats"),
	)
	dispatcher.SetCircuitBreaker(breaker)
	return dispatcher
}

func setupRouter(cfg *config.Config, a *app) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics(serviceName))

	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.UserIDHeader, middleware.UserRoleHeader, middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, serviceVersion, a.checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(requestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	api.Use(middleware.MaxBodySize(maxRequestBody), middleware.RequireJSON())
	api.Use(middleware.GatewayIdentity())
	{
		a.reviews.RegisterRoutes(api)
		a.coupons.RegisterRoutes(api)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole("admin"))
		a.fraud.RegisterRoutes(admin)
	}

	return router
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		d = 15 * time.Second
	}
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusGatewayTimeout, "request timed out")
		}),
	)
}
