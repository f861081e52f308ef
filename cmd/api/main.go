package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grablet/merchant-api/internal/application/service"
	"github.com/grablet/merchant-api/internal/config"
	domainRepo "github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/cache"
	"github.com/grablet/merchant-api/internal/infrastructure/database"
	"github.com/grablet/merchant-api/internal/infrastructure/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"github.com/grablet/merchant-api/internal/presentation/http/handler"
	"github.com/grablet/merchant-api/internal/presentation/http/middleware"
	"github.com/grablet/merchant-api/internal/presentation/http/routes"
	"github.com/grablet/merchant-api/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// caches holds the memoization stores of the anchor date and the rankings
type caches struct {
	anchor   domainRepo.Cache[time.Time]
	topItems domainRepo.Cache[service.TopItemsResult]
	stats    map[string]routes.StatsReporter
	close    func() error
}

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, cfg.App.Name, cfg.App.Env)
	if err != nil {
		zlog.Fatal("failed to set up tracing", zap.Error(err))
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.Log.Level, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, zlog); err != nil {
			zlog.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	stores, err := newCaches(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to set up caches", zap.Error(err))
	}

	// Initialize repositories
	analyticsRepo := repository.NewAnalyticsRepository(db, cfg.Database.Location())
	itemRepo := repository.NewItemRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)

	// Initialize services
	anchor := service.NewDateAnchor(analyticsRepo, stores.anchor, zlog.Named("anchor"),
		service.WithAnchorTimeout(cfg.Analytics.QueryTimeout),
	)
	catalog := service.NewItemCatalogService(itemRepo, cfg.Analytics, zlog.Named("catalog"))
	summaries := service.NewSalesSummaryService(analyticsRepo, anchor, cfg.Analytics, zlog.Named("summary"))
	trends := service.NewSalesTrendService(analyticsRepo, anchor, cfg.Analytics, zlog.Named("trend"))
	topItems := service.NewTopItemsService(analyticsRepo, catalog, anchor, stores.topItems, cfg.Analytics, zlog.Named("top_items"))
	bundles := service.NewBundleService(orderRepo, catalog, cfg.Analytics, zlog.Named("bundles"))
	categories := service.NewCategoryService(analyticsRepo, cfg.Analytics, zlog.Named("categories"))
	dashboard := service.NewDashboardService(summaries, trends, topItems, anchor, zlog.Named("dashboard"))
	merchantService := service.NewMerchantService(merchantRepo)
	cacheService := service.NewCacheService(anchor, topItems, zlog.Named("cache"))

	// Initialize handlers
	handlers := &routes.Handlers{
		Analytics: handler.NewAnalyticsHandler(handler.AnalyticsServices{
			Summaries:  summaries,
			Trends:     trends,
			TopItems:   topItems,
			Bundles:    bundles,
			Categories: categories,
			Catalog:    catalog,
			Dashboard:  dashboard,
		}),
		Merchant: handler.NewMerchantHandler(merchantService, cacheService),
	}

	rateLimiter := middleware.NewMerchantRateLimiter(
		middleware.RateLimiterConfigFrom(cfg.RateLimit.Requests, cfg.RateLimit.Duration),
	)
	defer rateLimiter.Stop()

	router := routes.Setup(handlers, &routes.Deps{
		Cfg:         cfg,
		Log:         zlog,
		RateLimiter: rateLimiter,
		Caches:      stores.stats,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(router, cfg.App.Name),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Info("starting server",
			zap.String("service", cfg.App.Name),
			zap.String("env", cfg.App.Env),
			zap.String("port", port),
			zap.String("cache_backend", cfg.Cache.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zlog.Error("tracer shutdown failed", zap.Error(err))
	}
	if err := stores.close(); err != nil {
		zlog.Error("cache shutdown failed", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		zlog.Error("database shutdown failed", zap.Error(err))
	}
}

// newCaches builds the memoization stores of the configured backend
func newCaches(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (*caches, error) {
	if cfg.Cache.Backend != config.CacheBackendRedis {
		anchor := cache.NewMemoryCache[time.Time](cfg.Cache.TTL)
		topItems := cache.NewMemoryCache[service.TopItemsResult](cfg.Cache.TTL)
		return &caches{
			anchor:   anchor,
			topItems: topItems,
			stats:    map[string]routes.StatsReporter{"anchor": anchor, "top_items": topItems},
			close:    func() error { return nil },
		}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if err != nil {
		return nil, err
	}

	opts := []cache.RedisOption{
		cache.WithPrefix(cfg.Cache.Prefix),
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(zlog.Named("redis")),
	}
	anchor := cache.NewRedisCache[time.Time](client, "anchor", opts...)
	topItems := cache.NewRedisCache[service.TopItemsResult](client, "top-items", opts...)

	return &caches{
		anchor:   anchor,
		topItems: topItems,
		stats:    map[string]routes.StatsReporter{"anchor": anchor, "top_items": topItems},
		close:    client.Close,
	}, nil
}
