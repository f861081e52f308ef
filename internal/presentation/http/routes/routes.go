package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/presentation/http/handler"
	"github.com/grablet/merchant-api/internal/presentation/http/middleware"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Analytics *handler.AnalyticsHandler
	Merchant  *handler.MerchantHandler
}

// StatsReporter exposes counters on the health endpoint
type StatsReporter interface {
	Stats() map[string]interface{}
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg         *config.Config
	Log         *zap.Logger
	RateLimiter *middleware.MerchantRateLimiter
	Caches      map[string]StatsReporter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		}
		if deps.RateLimiter != nil {
			body["rate_limiter"] = deps.RateLimiter.Stats()
		}
		if len(deps.Caches) > 0 {
			caches := make(gin.H, len(deps.Caches))
			for name, c := range deps.Caches {
				caches[name] = c.Stats()
			}
			body["caches"] = caches
		}
		c.JSON(200, body)
	})

	v1 := router.Group("/api/v1")
	{
		merchants := v1.Group("/merchants/:" + handler.MerchantIDParam)
		if deps.RateLimiter != nil {
			merchants.Use(deps.RateLimiter.Middleware())
		}
		registerMerchantRoutes(merchants, h)

		admin := v1.Group("/admin")
		registerAdminRoutes(admin, h)
	}

	return router
}

func registerMerchantRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("", h.Merchant.Get)
	rg.GET("/overview", h.Analytics.Overview)
	rg.GET("/categories", h.Analytics.Categories)

	sales := rg.Group("/sales")
	{
		sales.GET("/summary", h.Analytics.Summary)
		sales.GET("/trend", h.Analytics.Trend)
	}

	items := rg.Group("/items")
	{
		items.GET("", h.Analytics.Items)
		items.GET("/top", h.Analytics.TopItems)
		items.GET("/best-seller", h.Analytics.BestSeller)
		items.GET("/bundles", h.Analytics.Bundles)
	}
}

func registerAdminRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/cache/invalidate", h.Merchant.InvalidateCache)
}
